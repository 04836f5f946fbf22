// internal/domain/models/pollvote.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PollVote is one voter's current selections for one poll activity. There is
// at most one record per (AnnouncementID, UserID); revoting overwrites it.
type PollVote struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AnnouncementID primitive.ObjectID `bson:"announcement_id" json:"announcement_id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	UserName       string             `bson:"user_name,omitempty" json:"user_name,omitempty"`
	Selections     []string           `bson:"selections" json:"selections"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
