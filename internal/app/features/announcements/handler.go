// internal/app/features/announcements/handler.go
package announcements

import (
	activitystore "github.com/WaffleZilla55/BesPick/internal/app/store/activities"
	pollvotestore "github.com/WaffleZilla55/BesPick/internal/app/store/pollvotes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the activity lifecycle handlers: announcements, polls, and
// voting events all share the create/edit/archive/delete/list surface here.
type Handler struct {
	DB    *mongo.Database
	Store *activitystore.Store
	Votes *pollvotestore.Store
	Log   *zap.Logger
}

// NewHandler constructs an activities Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: activitystore.New(db),
		Votes: pollvotestore.New(db),
		Log:   logger,
	}
}
