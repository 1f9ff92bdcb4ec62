package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	Pending  IssueStatus = "Pending"
	InAction IssueStatus = "In Action"
	Resolved IssueStatus = "Resolved"
)

// IssuePriority enum
type IssuePriority string

const (
	Low      IssuePriority = "Low"
	Medium   IssuePriority = "Medium"
	High     IssuePriority = "High"
	Critical IssuePriority = "Critical"
)

// ProgressUpdate is a single entry in an issue's append-only progress log.
type ProgressUpdate struct {
	Comment   string    `bson:"comment" json:"comment"`
	Photo     string    `bson:"photo" json:"photo"`
	UpdatedBy string    `bson:"updatedBy" json:"updatedBy"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Issue represents a civic grievance reported by a user. IssueID is the
// human-readable identifier (e.g. GUN-20250128-1234), distinct from the
// Mongo primary key. UserName and UserPhone are audit snapshots of the
// creator taken at creation time and never refreshed afterwards.
// AssignedTo and VerifiedBy hold string identities because the acting
// admin may be a break-glass operator with no stored user document.
type Issue struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	IssueID         string             `bson:"id" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	UserName        string             `bson:"userName" json:"userName"`
	UserPhone       string             `bson:"userPhone" json:"userPhone"`
	District        string             `bson:"district" json:"district"`
	Category        string             `bson:"category" json:"category"`
	Title           string             `bson:"title" json:"title"`
	Location        string             `bson:"location" json:"location"`
	Details         string             `bson:"details" json:"details"`
	Status          IssueStatus        `bson:"status" json:"status"`
	Priority        IssuePriority      `bson:"priority" json:"priority"`
	Tag             string             `bson:"tag" json:"tag"`
	Photos          []string           `bson:"photos" json:"photos"`
	AssignedTo      string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedDate    *time.Time         `bson:"assignedDate,omitempty" json:"assignedDate,omitempty"`
	ResolvedDate    *time.Time         `bson:"resolvedDate,omitempty" json:"resolvedDate,omitempty"`
	ResolutionNotes string             `bson:"resolutionNotes" json:"resolutionNotes"`
	IsVerified      bool               `bson:"isVerified" json:"isVerified"`
	IsDuplicate     bool               `bson:"isDuplicate" json:"isDuplicate"`
	DuplicateOf     string             `bson:"duplicateOf,omitempty" json:"duplicateOf,omitempty"`
	ModeratorNotes  string             `bson:"moderatorNotes" json:"moderatorNotes"`
	VerifiedBy      string             `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerifiedDate    *time.Time         `bson:"verifiedDate,omitempty" json:"verifiedDate,omitempty"`
	ProgressUpdates []ProgressUpdate   `bson:"progressUpdates" json:"progressUpdates"`
	ViewCount       int                `bson:"viewCount" json:"viewCount"`
	Upvotes         int                `bson:"upvotes" json:"upvotes"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewIssueID builds a human-readable issue identifier of the form
// DST-YYYYMMDD-#### from the supplied district. Districts shorter than
// three characters keep their full length; an empty district falls back
// to "AP". The random suffix is not collision-free, so inserts must run
// under a unique index with retry.
func NewIssueID(district string, now time.Time) string {
	code := strings.ToUpper(strings.TrimSpace(district))
	if code == "" {
		code = "AP"
	}
	if runes := []rune(code); len(runes) > 3 {
		code = string(runes[:3])
	}
	suffix := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%s-%s-%d", code, now.Format("20060102"), suffix)
}
