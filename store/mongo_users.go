package store

import (
	"context"
	"time"

	"prajavaradhi-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUserStore struct {
	col *mongo.Collection
}

// NewMongoUserStore returns a UserStore backed by the given collection.
func NewMongoUserStore(col *mongo.Collection) UserStore {
	return &mongoUserStore{col: col}
}

func (s *mongoUserStore) Create(ctx context.Context, u *models.User) error {
	var existing models.User
	err := s.col.FindOne(ctx, bson.M{
		"$or": []bson.M{{"email": u.Email}, {"phone": u.Phone}},
	}).Decode(&existing)
	if err == nil {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
		return ErrPhoneTaken
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err = s.col.InsertOne(ctx, u)
	return err
}

func (s *mongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoUserStore) FindByIdentifier(ctx context.Context, email, phone, identifier string) (*models.User, error) {
	var filter bson.M
	switch {
	case email != "":
		filter = bson.M{"email": email}
	case phone != "":
		filter = bson.M{"phone": phone}
	default:
		filter = bson.M{"$or": []bson.M{{"email": identifier}, {"phone": identifier}}}
	}
	return s.findOne(ctx, filter)
}

func (s *mongoUserStore) FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	return s.findOne(ctx, bson.M{
		"resetPasswordToken":  token,
		"resetPasswordExpire": bson.M{"$gt": now},
	})
}

func (s *mongoUserStore) RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"lastLogin": at, "updatedAt": at}})
}

func (s *mongoUserStore) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expire time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		"resetPasswordToken":  token,
		"resetPasswordExpire": expire,
		"updatedAt":           time.Now(),
	}})
}

func (s *mongoUserStore) ResetPassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	return s.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"password": hashedPassword, "updatedAt": time.Now()},
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	})
}

func (s *mongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
