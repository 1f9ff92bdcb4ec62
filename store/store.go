// Package store persists users and issues. The interfaces here are the
// credential and issue stores the handlers are written against; the Mongo
// implementations live alongside them.
package store

import (
	"context"
	"errors"
	"time"

	"prajavaradhi-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrPhoneTaken       = errors.New("phone number already registered")
	ErrDuplicateIssueID = errors.New("issue id already exists")
)

// UserStore persists user identities and credentials.
type UserStore interface {
	// Create inserts a new user, failing with ErrEmailTaken or
	// ErrPhoneTaken when either unique field collides.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// FindByIdentifier resolves a login identifier: an explicit email
	// wins, then an explicit phone, then the generic identifier is tried
	// against both fields.
	FindByIdentifier(ctx context.Context, email, phone, identifier string) (*models.User, error)
	// FindByResetToken returns the user holding the token with an expiry
	// strictly after now.
	FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	// RecordLogin stamps lastLogin without touching anything else.
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expire time.Time) error
	// ResetPassword stores the already-hashed password and clears both
	// reset fields.
	ResetPassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error
}

// IssueFilter scopes issue listings. The zero value returns everything.
type IssueFilter struct {
	District     string
	VerifiedOnly bool // verified and not flagged duplicate
}

// IssueUpdate carries partial updates to an issue. A nil field leaves the
// stored value untouched; a non-nil pointer to a zero value clears it.
type IssueUpdate struct {
	Status          *models.IssueStatus
	Tag             *string
	Priority        *models.IssuePriority
	ResolutionNotes *string
	AssignedTo      *string
	AssignedDate    *time.Time
	ResolvedDate    *time.Time
	IsVerified      *bool
	ModeratorNotes  *string
	IsDuplicate     *bool
	DuplicateOf     *string
	VerifiedBy      *string
	VerifiedDate    *time.Time
}

// IssueStore persists issues and their progress history.
type IssueStore interface {
	// Insert fails with ErrDuplicateIssueID when the human-readable
	// identifier is already taken.
	Insert(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// FindByUser returns the user's issues, newest first.
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Issue, error)
	// Find returns issues matching the filter, newest first.
	Find(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
	// Update applies the partial update and returns the updated issue.
	Update(ctx context.Context, id primitive.ObjectID, upd IssueUpdate) (*models.Issue, error)
	// AppendProgress appends one entry to the issue's progress log and
	// returns the updated issue. Prior entries are never touched.
	AppendProgress(ctx context.Context, id primitive.ObjectID, pu models.ProgressUpdate) (*models.Issue, error)
	// IncrementViewCount bumps the view counter, best effort.
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) error
}
