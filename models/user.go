package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User roles
const (
	RoleCitizen   = "citizen"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// User represents a registered citizen, admin or moderator. The password
// hash and reset fields never serialize to JSON.
type User struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name                string             `bson:"name" json:"name"`
	Email               string             `bson:"email" json:"email"`
	Phone               string             `bson:"phone" json:"phone"`
	Password            string             `bson:"password,omitempty" json:"-"`
	Role                string             `bson:"role" json:"role"`
	District            string             `bson:"district" json:"district"`
	Address             string             `bson:"address" json:"address"`
	ProfilePicture      string             `bson:"profilePicture" json:"profilePicture"`
	IsActive            bool               `bson:"isActive" json:"isActive"`
	LastLogin           *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	RegisteredDate      time.Time          `bson:"registeredDate" json:"registeredDate"`
	ResetPasswordToken  string             `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire *time.Time         `bson:"resetPasswordExpire,omitempty" json:"-"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
