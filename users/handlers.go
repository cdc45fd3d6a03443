package users

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/auth"
	"github.com/user/vidstream-go/media"
)

const maxMultipartMemory = 32 << 20

// Handlers exposes the users service over HTTP.
type Handlers struct {
	service *Service
	tempDir string
}

// NewHandlers creates the users handlers. tempDir is where multipart uploads
// are spooled before they reach the media uploader.
func NewHandlers(service *Service, tempDir string) *Handlers {
	return &Handlers{
		service: service,
		tempDir: tempDir,
	}
}

// HandleUpdateProfile godoc
// @Summary Update profile fields
// @Description Replaces the full name and email of the authenticated user. Both fields are required.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profileBody body UpdateProfileRequest true "New profile fields"
// @Success 200 {object} auth.SuccessResponse{data=auth.UserResponse}
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Router /api/v1/users/update-user [patch]
func (h *Handlers) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		user, err := h.service.UpdateProfile(r.Context(), userID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, user, "profile updated successfully")
	}
}

// handleMediaUpdate is shared by the avatar and cover endpoints; they differ
// only in the form field and the service call.
func (h *Handlers) handleMediaUpdate(
	field string,
	update func(r *http.Request, userID int64, localPath string) (*auth.UserResponse, error),
	message string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid multipart form", err))
			return
		}

		localPath, err := media.SpoolFormFile(r, field, h.tempDir)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		defer media.RemoveIfExists(localPath)

		user, err := update(r, userID, localPath)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, user, message)
	}
}

// HandleUpdateAvatar godoc
// @Summary Replace avatar
// @Description Uploads a new avatar, persists it, then deletes the previous asset.
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "New avatar image"
// @Success 200 {object} auth.SuccessResponse{data=auth.UserResponse}
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/v1/users/update-avatar [patch]
func (h *Handlers) HandleUpdateAvatar() http.HandlerFunc {
	return h.handleMediaUpdate("avatar", func(r *http.Request, userID int64, localPath string) (*auth.UserResponse, error) {
		return h.service.UpdateAvatar(r.Context(), userID, localPath)
	}, "avatar updated successfully")
}

// HandleUpdateCover godoc
// @Summary Replace cover image
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "New cover image"
// @Success 200 {object} auth.SuccessResponse{data=auth.UserResponse}
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/v1/users/update-cover [patch]
func (h *Handlers) HandleUpdateCover() http.HandlerFunc {
	return h.handleMediaUpdate("coverImage", func(r *http.Request, userID int64, localPath string) (*auth.UserResponse, error) {
		return h.service.UpdateCoverImage(r.Context(), userID, localPath)
	}, "cover image updated successfully")
}

// HandleChannelProfile godoc
// @Summary Channel profile
// @Description Returns a channel's public profile with subscriber aggregates as seen by the authenticated user.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param username path string true "Channel username"
// @Success 200 {object} auth.SuccessResponse{data=ChannelProfileResponse}
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/users/c/{username} [get]
func (h *Handlers) HandleChannelProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		profile, err := h.service.ChannelProfile(r.Context(), chi.URLParam(r, "username"), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, profile, "channel profile fetched successfully")
	}
}

// HandleWatchHistory godoc
// @Summary Watch history
// @Description Returns the authenticated user's watched videos, most recent first, with each video's owner projected.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.SuccessResponse{data=[]WatchHistoryEntry}
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/users/watch-history [get]
func (h *Handlers) HandleWatchHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		history, err := h.service.WatchHistory(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, history, "watch history fetched successfully")
	}
}
