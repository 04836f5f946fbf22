// internal/app/features/uploads/handler.go
package uploads

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.uber.org/zap"
)

// Handler owns the image upload/serve handlers. Images live in a GridFS
// bucket; activities reference them by id.
type Handler struct {
	DB     *mongo.Database
	Bucket *gridfs.Bucket
	Log    *zap.Logger
}

// NewHandler constructs an uploads Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) (*Handler, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &Handler{DB: db, Bucket: bucket, Log: logger}, nil
}
