package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AuthUser is the identity resolved for an authenticated request. For
// stored users ID is the hex ObjectID; for break-glass operators it is
// the synthetic "admin_<username>" form and ObjectID stays zero.
type AuthUser struct {
	ID        string
	ObjectID  primitive.ObjectID
	Name      string
	Email     string
	Phone     string
	Role      string
	District  string
	Synthetic bool
}

// Stored reports whether the identity is backed by a user document.
func (u *AuthUser) Stored() bool {
	return !u.Synthetic
}
