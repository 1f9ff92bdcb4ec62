// Package storetest provides in-memory store implementations for tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"prajavaradhi-be/models"
	"prajavaradhi-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Users is an in-memory store.UserStore.
type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewUsers() *Users {
	return &Users{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrEmailTaken
		}
		if existing.Phone == u.Phone {
			return store.ErrPhoneTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *Users) FindByIdentifier(_ context.Context, email, phone, identifier string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		switch {
		case email != "":
			if u.Email == email {
				clone := *u
				return &clone, nil
			}
		case phone != "":
			if u.Phone == phone {
				clone := *u
				return &clone, nil
			}
		default:
			if u.Email == identifier || u.Phone == identifier {
				clone := *u
				return &clone, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) FindByResetToken(_ context.Context, token string, now time.Time) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ResetPasswordToken == token && u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) RecordLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	u.UpdatedAt = at
	return nil
}

func (s *Users) SetResetToken(_ context.Context, id primitive.ObjectID, token string, expire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.ResetPasswordToken = token
	u.ResetPasswordExpire = &expire
	return nil
}

func (s *Users) ResetPassword(_ context.Context, id primitive.ObjectID, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = hashedPassword
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	u.UpdatedAt = time.Now()
	return nil
}

// ExpireResetToken backdates the stored reset expiry so tests can cover
// the expired-token path.
func (s *Users) ExpireResetToken(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok && u.ResetPasswordExpire != nil {
		expired := time.Now().Add(-time.Minute)
		u.ResetPasswordExpire = &expired
	}
}

// Issues is an in-memory store.IssueStore.
type Issues struct {
	mu     sync.Mutex
	issues map[primitive.ObjectID]*models.Issue
}

func NewIssues() *Issues {
	return &Issues{issues: make(map[primitive.ObjectID]*models.Issue)}
}

func (s *Issues) Insert(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.issues {
		if existing.IssueID == issue.IssueID {
			return store.ErrDuplicateIssueID
		}
	}
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	clone := *issue
	s.issues[issue.ID] = &clone
	return nil
}

func (s *Issues) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *issue
	return &clone, nil
}

func (s *Issues) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Issue
	for _, issue := range s.issues {
		if issue.UserID == userID {
			out = append(out, *issue)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Issues) Find(_ context.Context, filter store.IssueFilter) ([]models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Issue{}
	for _, issue := range s.issues {
		if filter.VerifiedOnly && (!issue.IsVerified || issue.IsDuplicate) {
			continue
		}
		if filter.District != "" && issue.District != filter.District {
			continue
		}
		out = append(out, *issue)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Issues) Update(_ context.Context, id primitive.ObjectID, upd store.IssueUpdate) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	if upd.Status != nil {
		issue.Status = *upd.Status
	}
	if upd.Tag != nil {
		issue.Tag = *upd.Tag
	}
	if upd.Priority != nil {
		issue.Priority = *upd.Priority
	}
	if upd.ResolutionNotes != nil {
		issue.ResolutionNotes = *upd.ResolutionNotes
	}
	if upd.AssignedTo != nil {
		issue.AssignedTo = *upd.AssignedTo
	}
	if upd.AssignedDate != nil {
		issue.AssignedDate = upd.AssignedDate
	}
	if upd.ResolvedDate != nil {
		issue.ResolvedDate = upd.ResolvedDate
	}
	if upd.IsVerified != nil {
		issue.IsVerified = *upd.IsVerified
	}
	if upd.ModeratorNotes != nil {
		issue.ModeratorNotes = *upd.ModeratorNotes
	}
	if upd.IsDuplicate != nil {
		issue.IsDuplicate = *upd.IsDuplicate
	}
	if upd.DuplicateOf != nil {
		issue.DuplicateOf = *upd.DuplicateOf
	}
	if upd.VerifiedBy != nil {
		issue.VerifiedBy = *upd.VerifiedBy
	}
	if upd.VerifiedDate != nil {
		issue.VerifiedDate = upd.VerifiedDate
	}
	issue.UpdatedAt = time.Now()

	clone := *issue
	return &clone, nil
}

func (s *Issues) AppendProgress(_ context.Context, id primitive.ObjectID, pu models.ProgressUpdate) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	issue.ProgressUpdates = append(issue.ProgressUpdates, pu)
	issue.UpdatedAt = time.Now()

	clone := *issue
	return &clone, nil
}

// ShiftCreatedAt moves an issue's creation time by d so tests can force
// a distinct ordering.
func (s *Issues) ShiftCreatedAt(hexID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return
	}
	if issue, ok := s.issues[id]; ok {
		issue.CreatedAt = issue.CreatedAt.Add(d)
	}
}

func (s *Issues) IncrementViewCount(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.issues[id]
	if !ok {
		return store.ErrNotFound
	}
	issue.ViewCount++
	return nil
}

func sortNewestFirst(issues []models.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
}
