// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents admins and members of the board.
//
// Group and Portfolio drive voting-event eligibility filters and are free-form
// labels managed by admins; either may be empty (an "ungrouped" user).
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"first_name" json:"first_name"`
	LastName   string             `bson:"last_name" json:"last_name"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	AuthMethod string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role       string             `bson:"role" json:"role"` // admin | member
	Status     string             `bson:"status,omitempty" json:"status,omitempty"`
	Group      string             `bson:"group,omitempty" json:"group,omitempty"`
	Portfolio  string             `bson:"portfolio,omitempty" json:"portfolio,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

// DisplayName returns the best available human-readable name for the user.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
