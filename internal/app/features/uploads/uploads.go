// internal/app/features/uploads/uploads.go
package uploads

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	uierrors "github.com/WaffleZilla55/BesPick/internal/app/features/errors"
	"github.com/WaffleZilla55/BesPick/internal/app/system/limits"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Upload stores one image from a multipart form and returns its id. Only
// image content types are accepted; the body is capped at the upload limit.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxImageUploadSize)
	if err := r.ParseMultipartForm(limits.MaxImageUploadSize); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "image too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		uierrors.Write(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		uierrors.Write(w, http.StatusBadRequest, "only image uploads are accepted")
		return
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	id, err := h.Bucket.UploadFromStream(header.Filename, file, opts)
	if err != nil {
		h.Log.Error("failed to store image", zap.Error(err), zap.String("filename", header.Filename))
		uierrors.Write(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}{ID: id.Hex(), URL: "/uploads/images/" + id.Hex()})
}

// Serve streams one stored image.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	stream, err := h.Bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			http.NotFound(w, r)
			return
		}
		h.Log.Error("failed to open image stream", zap.Error(err), zap.String("image_id", id.Hex()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		var meta struct {
			ContentType string `bson:"content_type"`
		}
		if err := bson.Unmarshal(file.Metadata, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, stream); err != nil {
		h.Log.Warn("image stream interrupted", zap.Error(err), zap.String("image_id", id.Hex()))
	}
}

type resolveRequest struct {
	IDs []string `json:"ids"`
}

// Resolve maps stored image ids to serving URLs. Unknown or malformed ids
// are silently dropped; the frontend renders whatever resolves.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		uierrors.Write(w, http.StatusBadRequest, "invalid request body")
		return
	}

	urls := make(map[string]string, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		urls[id.Hex()] = "/uploads/images/" + id.Hex()
	}

	writeJSON(w, http.StatusOK, struct {
		URLs map[string]string `json:"urls"`
	}{URLs: urls})
}
