// internal/app/features/voting/handler.go
package voting

import (
	activitystore "github.com/WaffleZilla55/BesPick/internal/app/store/activities"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the voting-event handlers: the roster/leaderboard view and
// the vote-credit purchase flow.
type Handler struct {
	DB    *mongo.Database
	Store *activitystore.Store
	Log   *zap.Logger
}

// NewHandler constructs a voting Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Store: activitystore.New(db),
		Log:   logger,
	}
}
