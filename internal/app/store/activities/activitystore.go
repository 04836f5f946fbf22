// internal/app/store/activities/activitystore.go
package activitystore

import (
	"context"
	"errors"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/domain/apperrors"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists Activity records in the "activities" collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activities")}
}

// Create inserts a normalized activity, stamping ID, CreatedAt, and CreatedBy.
// The caller is expected to have run inputval.NormalizeActivity first.
func (s *Store) Create(ctx context.Context, a models.Activity, createdBy string, now time.Time) (models.Activity, error) {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now.UTC()
	a.CreatedBy = createdBy

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// GetByID returns one activity or apperrors.ErrActivityNotFound.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Activity, error) {
	var a models.Activity
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Activity{}, apperrors.ErrActivityNotFound
	}
	if err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// Update overwrites the normalized business fields of an existing record and
// stamps the update provenance. Identity, creation metadata, and the roster
// revision counter are preserved.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, a models.Activity, updatedBy string, now time.Time) error {
	ts := now.UTC()
	set := bson.M{
		"title":       a.Title,
		"description": a.Description,
		"event_type":  a.EventType,
		"status":      a.Status,
		"publish_at":  a.PublishAt,
		"updated_at":  ts,
		"updated_by":  updatedBy,
	}
	unset := bson.M{}

	setOrUnset(set, unset, "auto_delete_at", a.AutoDeleteAt != nil, a.AutoDeleteAt)
	setOrUnset(set, unset, "auto_archive_at", a.AutoArchiveAt != nil, a.AutoArchiveAt)
	setOrUnset(set, unset, "poll", a.Poll != nil, a.Poll)
	setOrUnset(set, unset, "voting", a.Voting != nil, a.Voting)
	setOrUnset(set, unset, "image_ids", len(a.ImageIDs) > 0, a.ImageIDs)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrActivityNotFound
	}
	return nil
}

func setOrUnset(set, unset bson.M, field string, present bool, value any) {
	if present {
		set[field] = value
	} else {
		unset[field] = ""
	}
}

// Archive marks the record archived. The transition is terminal; only an
// explicit edit with a new publish time brings a record back.
func (s *Store) Archive(ctx context.Context, id primitive.ObjectID, updatedBy string, now time.Time) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     models.StatusArchived,
		"updated_at": now.UTC(),
		"updated_by": updatedBy,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrActivityNotFound
	}
	return nil
}

// Delete removes the record. Poll vote cascade is the caller's job (see the
// announcements feature), so this stays a single-collection operation.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListActive returns every non-archived record whose effective status at now
// is published, newest first. The scheduled→published flip is reflected in
// the returned view without being persisted; Sweep owns the durable flip.
func (s *Store) ListActive(ctx context.Context, now time.Time) ([]models.Activity, error) {
	filter := bson.M{
		"status": bson.M{"$ne": models.StatusArchived},
		"$or": []bson.M{
			{"status": models.StatusPublished},
			{"publish_at": bson.M{"$lte": now.UTC()}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	items, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(now)
	}
	return items, nil
}

// ListScheduled returns records still waiting to publish, soonest first.
func (s *Store) ListScheduled(ctx context.Context, now time.Time) ([]models.Activity, error) {
	filter := bson.M{
		"status":     models.StatusScheduled,
		"publish_at": bson.M{"$gt": now.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "publish_at", Value: 1}})
	return s.find(ctx, filter, opts)
}

// ListArchived returns archived records, newest first.
func (s *Store) ListArchived(ctx context.Context) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.find(ctx, bson.M{"status": models.StatusArchived}, opts)
}

// NextPublishAt returns the earliest future publish instant among scheduled
// records, or nil when nothing is pending.
func (s *Store) NextPublishAt(ctx context.Context, now time.Time) (*time.Time, error) {
	filter := bson.M{
		"status":     models.StatusScheduled,
		"publish_at": bson.M{"$gt": now.UTC()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "publish_at", Value: 1}})
	var a models.Activity
	err := s.c.FindOne(ctx, filter, opts).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := a.PublishAt
	return &t, nil
}

// PublishDue flips every scheduled record whose publish time has passed.
// The filter carries the precondition, so overlapping sweeps cannot
// double-count: the second matches nothing.
func (s *Store) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.StatusScheduled, "publish_at": bson.M{"$lte": now.UTC()}},
		bson.M{"$set": bson.M{"status": models.StatusPublished}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindAutoDeleteDue lists records whose auto-delete instant has passed. The
// caller cascades poll votes and then calls DeleteIfStillDue per record.
func (s *Store) FindAutoDeleteDue(ctx context.Context, now time.Time) ([]models.Activity, error) {
	return s.find(ctx, bson.M{"auto_delete_at": bson.M{"$lte": now.UTC()}}, nil)
}

// DeleteIfStillDue removes a record only while its auto-delete precondition
// still holds, keeping overlapping sweeps from double-deleting.
func (s *Store) DeleteIfStillDue(ctx context.Context, id primitive.ObjectID, now time.Time) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "auto_delete_at": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ArchiveDue archives every non-archived record whose auto-archive instant
// has passed.
func (s *Store) ArchiveDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":          bson.M{"$ne": models.StatusArchived},
			"auto_archive_at": bson.M{"$lte": now.UTC()},
		},
		bson.M{"$set": bson.M{"status": models.StatusArchived}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SetPollOptions persists a grown option list. Runs inside the vote
// transaction so the option append and the vote upsert commit together.
func (s *Store) SetPollOptions(ctx context.Context, id primitive.ObjectID, opts []string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"poll.options": opts}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrActivityNotFound
	}
	return nil
}

// ReplaceRoster writes an adjusted roster snapshot in one atomic update,
// guarded by the revision the caller read. A lost race returns
// apperrors.ErrRosterConflict so the caller can re-read and retry.
func (s *Store) ReplaceRoster(ctx context.Context, id primitive.ObjectID, readRev int64, participants []models.VotingParticipant, updatedBy string, now time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "roster_rev": rosterRevFilter(readRev)},
		bson.M{
			"$set": bson.M{
				"voting.participants": participants,
				"updated_at":          now.UTC(),
				"updated_by":          updatedBy,
			},
			"$inc": bson.M{"roster_rev": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrRosterConflict
	}
	return nil
}

// rosterRevFilter treats rev 0 as "field absent or zero" since records
// created before any adjustment carry no roster_rev field.
func rosterRevFilter(rev int64) any {
	if rev == 0 {
		return bson.M{"$in": bson.A{nil, int64(0), int32(0)}}
	}
	return rev
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Activity, error) {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = s.c.Find(ctx, filter, opts)
	} else {
		cur, err = s.c.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
