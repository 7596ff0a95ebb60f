package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/storage"
)

// maxUploadMemory bounds how much of a multipart body is buffered in memory;
// larger files spill to disk.
const maxUploadMemory = 32 << 20

// viewerID returns the authenticated user's id, or "" for anonymous requests.
func viewerID(r *http.Request) string {
	if user := middleware.UserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return ""
}

// currentUser returns the authenticated user attached by the auth middleware.
func currentUser(r *http.Request) (models.User, error) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		return models.User{}, apperror.Unauthenticated("authentication required")
	}
	return *user, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// formFile extracts one uploaded file from a parsed multipart form. An
// absent field is (nil, nil, nil); callers decide whether that is an error.
func formFile(r *http.Request, field string) (*storage.File, io.Closer, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, nil
		}
		return nil, nil, apperror.InvalidInput(field, "invalid file upload")
	}
	return &storage.File{Name: header.Filename, Reader: f}, f, nil
}
