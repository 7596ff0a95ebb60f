package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/apperror"
	"github.com/vidtube/backend/internal/mutate"
)

// VideoHandler implements video upload, playback and management endpoints.
type VideoHandler struct {
	Views     ViewComposer
	Mutations MutationEngine
}

// Upload handles POST /api/v1/videos (multipart).
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.InvalidInput("body", "invalid multipart form"))
		return
	}

	media, mediaClose, err := formFile(r, "videoFile")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if mediaClose != nil {
		defer mediaClose.Close()
	}

	thumbnail, thumbClose, err := formFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if thumbClose != nil {
		defer thumbClose.Close()
	}

	video, err := h.Mutations.UploadVideo(ctx, user.ID, mutate.UploadVideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Media:       media,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, video, "video uploaded")
}

// Play handles GET /api/v1/videos/{videoId}. With self=true an owner can
// fetch their own private video; the view still counts.
func (h VideoHandler) Play(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	selfView := r.URL.Query().Get("self") == "true"
	view, err := h.Views.VideoPlay(ctx, r.PathValue("videoId"), viewerID(r), selfView)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, view, "video fetched")
}

// Feed handles GET /api/v1/videos: the home feed, or search when the query
// parameter is present.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	feed, err := h.Views.Feed(ctx, viewerID(r), r.URL.Query().Get("query"), page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, feed, "videos fetched")
}

// Update handles PATCH /api/v1/videos/{videoId} (multipart, thumbnail optional).
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, apperror.InvalidInput("body", "invalid multipart form"))
		return
	}

	thumbnail, thumbClose, err := formFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if thumbClose != nil {
		defer thumbClose.Close()
	}

	video, err := h.Mutations.UpdateVideoDetails(ctx, user.ID, r.PathValue("videoId"),
		r.FormValue("title"), r.FormValue("description"), thumbnail)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, video, "video updated")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Mutations.DeleteVideo(ctx, user.ID, r.PathValue("videoId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, nil, "video deleted")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish-status.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := currentUser(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req publishStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Mutations.TogglePublishStatus(ctx, user.ID, r.PathValue("videoId"), req.PublishStatus)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, video, "publish status changed")
}

type publishStatusRequest struct {
	PublishStatus string `json:"publishStatus"`
}
