// internal/app/features/members/handler.go
package members

import (
	userstore "github.com/WaffleZilla55/BesPick/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the admin user-management handlers: the roster candidate list
// used when building voting events, and role assignment.
type Handler struct {
	DB    *mongo.Database
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler constructs a members Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Users: userstore.New(db),
		Log:   logger,
	}
}
