// internal/app/store/pollvotes/pollvotestore.go
package pollvotestore

import (
	"context"
	"errors"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists poll votes in the "poll_votes" collection. One record per
// (activity, user) pair, enforced by a unique index.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("poll_votes")}
}

// Upsert records or replaces a user's vote. Re-voting overwrites the previous
// selections; the original created_at survives the rewrite.
func (s *Store) Upsert(ctx context.Context, activityID primitive.ObjectID, userID, userName string, selections []string, now time.Time) error {
	ts := now.UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"announcement_id": activityID, "user_id": userID},
		bson.M{
			"$set": bson.M{
				"user_name":  userName,
				"selections": selections,
				"updated_at": ts,
			},
			"$setOnInsert": bson.M{"created_at": ts},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// GetByActivityUser returns the caller's vote, or nil when they have not voted.
func (s *Store) GetByActivityUser(ctx context.Context, activityID primitive.ObjectID, userID string) (*models.PollVote, error) {
	var v models.PollVote
	err := s.c.FindOne(ctx, bson.M{"announcement_id": activityID, "user_id": userID}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByActivity returns every vote cast on one poll.
func (s *Store) ListByActivity(ctx context.Context, activityID primitive.ObjectID) ([]models.PollVote, error) {
	cur, err := s.c.Find(ctx, bson.M{"announcement_id": activityID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.PollVote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByActivity cascades vote removal when a poll is deleted.
func (s *Store) DeleteByActivity(ctx context.Context, activityID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"announcement_id": activityID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
