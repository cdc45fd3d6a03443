package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/config"
	"github.com/user/vidstream-go/media"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger files spill to disk.
const maxMultipartMemory = 32 << 20

// Handlers exposes the auth service over HTTP.
type Handlers struct {
	service *Service
	authCfg *config.AuthConfig
	tempDir string
}

// NewHandlers creates the auth handlers. tempDir is where multipart uploads
// are spooled before they are handed to the media uploader.
func NewHandlers(service *Service, authCfg *config.AuthConfig, tempDir string) *Handlers {
	return &Handlers{
		service: service,
		authCfg: authCfg,
		tempDir: tempDir,
	}
}

func (h *Handlers) setAuthCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.authCfg.AccessTokenDuration.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.authCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.authCfg.RefreshTokenDuration.Seconds()),
	})
}

func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   h.authCfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
		})
	}
}

// HandleRegister godoc
// @Summary Register a new account
// @Description Creates a user from multipart form fields plus a required avatar image and optional cover image.
// @Tags auth
// @Accept mpfd
// @Produce json
// @Param fullName formData string true "Full name"
// @Param email formData string true "Email address"
// @Param username formData string true "Lowercase username"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} SuccessResponse{data=UserResponse}
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/v1/users/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid multipart form", err))
			return
		}

		req := RegisterRequest{
			FullName: r.FormValue("fullName"),
			Email:    r.FormValue("email"),
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}

		avatarPath, err := media.SpoolFormFile(r, "avatar", h.tempDir)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		coverPath, err := media.SpoolFormFile(r, "coverImage", h.tempDir)
		if err != nil {
			media.RemoveIfExists(avatarPath)
			WriteError(w, r, err)
			return
		}
		// The uploader consumes and removes spooled files; these only fire
		// when the service fails before reaching the upload step.
		defer media.RemoveIfExists(avatarPath)
		defer media.RemoveIfExists(coverPath)

		user, err := h.service.Register(r.Context(), req, avatarPath, coverPath)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusCreated, user, "user registered successfully")
	}
}

// HandleLogin godoc
// @Summary Log in
// @Description Verifies credentials and returns the user with an access/refresh token pair, also set as httpOnly cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param loginBody body LoginRequest true "Login credentials"
// @Success 200 {object} SuccessResponse{data=SessionResponse}
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/users/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		user, pair, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		h.setAuthCookies(w, pair)
		WriteJSON(w, http.StatusOK, SessionResponse{
			User:         user,
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}, "logged in successfully")
	}
}

// HandleLogout godoc
// @Summary Log out
// @Description Clears the stored refresh token and expires both auth cookies.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/users/logout [post]
func (h *Handlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		if err := h.service.Logout(r.Context(), userID); err != nil {
			WriteError(w, r, err)
			return
		}

		h.clearAuthCookies(w)
		WriteJSON(w, http.StatusOK, nil, "logged out successfully")
	}
}

// HandleRefreshToken godoc
// @Summary Refresh the session
// @Description Exchanges a valid refresh token (cookie or body) for a new token pair; the old refresh token becomes unusable.
// @Tags auth
// @Accept json
// @Produce json
// @Param refreshBody body RefreshTokenRequest false "Refresh token when not sent as a cookie"
// @Success 200 {object} SuccessResponse{data=SessionResponse}
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/users/refresh-token [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		incoming := ""
		if c, err := r.Cookie(RefreshTokenCookie); err == nil {
			incoming = c.Value
		}
		if incoming == "" {
			var req RefreshTokenRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				incoming = req.RefreshToken
			} else if !errors.Is(err, io.EOF) {
				WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
				return
			}
		}
		defer r.Body.Close()

		pair, err := h.service.RefreshAccessToken(r.Context(), incoming)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		h.setAuthCookies(w, pair)
		WriteJSON(w, http.StatusOK, SessionResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		}, "access token refreshed")
	}
}

// HandleChangePassword godoc
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwordBody body ChangePasswordRequest true "Old and new password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/users/change-password [patch]
func (h *Handlers) HandleChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		var req ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
		defer r.Body.Close()

		if err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, nil, "password changed successfully")
	}
}

// HandleCurrentUser godoc
// @Summary Current user
// @Description Returns the authenticated user's profile.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SuccessResponse{data=UserResponse}
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/users/user-data [get]
func (h *Handlers) HandleCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewUnauthorizedError("missing authentication context", nil))
			return
		}

		user, err := h.service.CurrentUser(r.Context(), userID)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, user, "current user fetched successfully")
	}
}
