package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/app/system/normalize"
	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrUserNotFound is returned by updates that matched no document.
	ErrUserNotFound = errors.New("user not found")
	errBadRole        = errors.New(`role must be "admin"|"member"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.FullName = normalize.Name(u.FullName)
	if u.FullName == "" {
		u.FullName = normalize.Name(u.FirstName + " " + u.LastName)
	}
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Group = normalize.Name(u.Group)
	u.Portfolio = normalize.Name(u.Portfolio)
	if u.Status == "" {
		u.Status = "active"
	}

	switch u.Role {
	case "admin", "member":
		// ok
	default:
		return models.User{}, errBadRole
	}

	switch u.Status {
	case "active", "disabled":
		// ok
	default:
		return models.User{}, errBadStatus
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Update holds the fields an admin can change on an existing user.
type Update struct {
	FirstName string
	LastName  string
	Role      string
	Status    string
	Group     string
	Portfolio string
}

// UpdateUser applies an admin edit. Returns ErrDuplicateEmail if a unique
// index rejects the write.
func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, upd Update) error {
	role := normalize.Role(upd.Role)
	if role != "admin" && role != "member" {
		return errBadRole
	}
	status := normalize.Status(upd.Status)
	if status != "active" && status != "disabled" {
		return errBadStatus
	}
	fullName := normalize.Name(upd.FirstName + " " + upd.LastName)

	set := bson.M{
		"first_name":   normalize.Name(upd.FirstName),
		"last_name":    normalize.Name(upd.LastName),
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"role":         role,
		"status":       status,
		"group":        normalize.Name(upd.Group),
		"portfolio":    normalize.Name(upd.Portfolio),
		"updated_at":   time.Now(),
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateRole changes only the role on an existing user.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role != "admin" && role != "member" {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// ListRosterCandidates returns every active user, sorted by folded name, for
// building a voting-event roster.
func (s *Store) ListRosterCandidates(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": "active"}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every user regardless of status, sorted by folded name.
func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TouchLogin stamps last_login_at.
func (s *Store) TouchLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login_at": now.UTC()}})
	return err
}
