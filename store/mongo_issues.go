package store

import (
	"context"
	"time"

	"prajavaradhi-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoIssueStore struct {
	col *mongo.Collection
}

// NewMongoIssueStore returns an IssueStore backed by the given collection.
func NewMongoIssueStore(col *mongo.Collection) IssueStore {
	return &mongoIssueStore{col: col}
}

// EnsureIssueIndexes creates the unique index on the human-readable issue
// identifier. Inserts rely on it to detect identifier collisions.
func EnsureIssueIndexes(col *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := col.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (s *mongoIssueStore) Insert(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, issue)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateIssueID
	}
	return err
}

func (s *mongoIssueStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *mongoIssueStore) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	return s.find(ctx, bson.M{"userId": userID})
}

func (s *mongoIssueStore) Find(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	query := bson.M{}
	if filter.VerifiedOnly {
		query["isVerified"] = true
		query["isDuplicate"] = false
	}
	if filter.District != "" {
		query["district"] = filter.District
	}
	return s.find(ctx, query)
}

func (s *mongoIssueStore) Update(ctx context.Context, id primitive.ObjectID, upd IssueUpdate) (*models.Issue, error) {
	set := bson.M{"updatedAt": time.Now()}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Tag != nil {
		set["tag"] = *upd.Tag
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.ResolutionNotes != nil {
		set["resolutionNotes"] = *upd.ResolutionNotes
	}
	if upd.AssignedTo != nil {
		set["assignedTo"] = *upd.AssignedTo
	}
	if upd.AssignedDate != nil {
		set["assignedDate"] = *upd.AssignedDate
	}
	if upd.ResolvedDate != nil {
		set["resolvedDate"] = *upd.ResolvedDate
	}
	if upd.IsVerified != nil {
		set["isVerified"] = *upd.IsVerified
	}
	if upd.ModeratorNotes != nil {
		set["moderatorNotes"] = *upd.ModeratorNotes
	}
	if upd.IsDuplicate != nil {
		set["isDuplicate"] = *upd.IsDuplicate
	}
	if upd.DuplicateOf != nil {
		set["duplicateOf"] = *upd.DuplicateOf
	}
	if upd.VerifiedBy != nil {
		set["verifiedBy"] = *upd.VerifiedBy
	}
	if upd.VerifiedDate != nil {
		set["verifiedDate"] = *upd.VerifiedDate
	}

	return s.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (s *mongoIssueStore) AppendProgress(ctx context.Context, id primitive.ObjectID, pu models.ProgressUpdate) (*models.Issue, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"progressUpdates": pu},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (s *mongoIssueStore) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
	return err
}

func (s *mongoIssueStore) find(ctx context.Context, query bson.M) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.col.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *mongoIssueStore) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&issue)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}
