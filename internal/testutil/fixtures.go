package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/WaffleZilla55/BesPick/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given name, email and role.
func (f *Fixtures) CreateUser(ctx context.Context, firstName, lastName, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	fullName := firstName + " " + lastName
	user := models.User{
		ID:         primitive.NewObjectID(),
		FirstName:  firstName,
		LastName:   lastName,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		AuthMethod: "google",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, firstName, lastName, email, "admin")
}

// CreateMember inserts a member user.
func (f *Fixtures) CreateMember(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, firstName, lastName, email, "member")
}

// CreateGroupedMember inserts a member assigned to a group and portfolio.
// Pass empty strings to leave the user ungrouped.
func (f *Fixtures) CreateGroupedMember(ctx context.Context, firstName, lastName, email, group, portfolio string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, firstName, lastName, email, "member")
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"group": group, "portfolio": portfolio}})
	if err != nil {
		f.t.Fatalf("failed to assign group to test user: %v", err)
	}
	u.Group = group
	u.Portfolio = portfolio
	return u
}

// CreateDisabledUser inserts a member whose account is disabled.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, firstName, lastName, email string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, firstName, lastName, email, "member")
	_, err := f.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"status": "disabled"}})
	if err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.Status = "disabled"
	return u
}
