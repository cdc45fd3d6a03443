package users

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vidstream-go/auth"
)

func authedRequest(t *testing.T, method, target string, body *bytes.Buffer, userID int64) *http.Request {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	claims := &auth.AccessClaims{UserID: userID}
	return req.WithContext(auth.NewContextWithClaims(req.Context(), claims))
}

func TestHandleUpdateProfile(t *testing.T) {
	svc, creds, _, _ := newTestService(storedUser())
	handlers := NewHandlers(svc, t.TempDir())

	body, _ := json.Marshal(UpdateProfileRequest{FullName: "Alice B.", Email: "b@example.com"})
	req := authedRequest(t, http.MethodPatch, "/api/v1/users/update-user", bytes.NewBuffer(body), 7)
	rec := httptest.NewRecorder()
	handlers.HandleUpdateProfile()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Alice B.", creds.user.FullName)

	var envelope struct {
		Data    auth.UserResponse `json:"data"`
		Success bool              `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "b@example.com", envelope.Data.Email)
}

func TestHandleUpdateProfileRequiresAuth(t *testing.T) {
	svc, _, _, _ := newTestService(storedUser())
	handlers := NewHandlers(svc, t.TempDir())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/update-user", bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	handlers.HandleUpdateProfile()(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleUpdateAvatarMultipart(t *testing.T) {
	svc, creds, _, uploader := newTestService(storedUser())
	handlers := NewHandlers(svc, t.TempDir())

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("avatar", "new.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("new avatar bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := authedRequest(t, http.MethodPatch, "/api/v1/users/update-avatar", &buf, 7)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	handlers.HandleUpdateAvatar()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"images/old-avatar.png"}, uploader.deleted)
	assert.Contains(t, creds.user.AvatarURL, "new-1.png")
}

func TestHandleUpdateAvatarMissingFile(t *testing.T) {
	svc, _, _, _ := newTestService(storedUser())
	handlers := NewHandlers(svc, t.TempDir())

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.Close())

	req := authedRequest(t, http.MethodPatch, "/api/v1/users/update-avatar", &buf, 7)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	handlers.HandleUpdateAvatar()(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChannelProfile(t *testing.T) {
	svc, _, profiles, _ := newTestService(storedUser())
	profiles.channel = &ChannelProfileResponse{ID: 7, Username: "alice", SubscriberCount: 5, IsSubscribed: true}
	handlers := NewHandlers(svc, t.TempDir())

	req := authedRequest(t, http.MethodGet, "/api/v1/users/c/alice", nil, 1)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("username", "alice")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	handlers.HandleChannelProfile()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data    ChannelProfileResponse `json:"data"`
		Success bool                   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, int64(5), envelope.Data.SubscriberCount)
	assert.True(t, envelope.Data.IsSubscribed)
}

func TestHandleWatchHistoryEmpty(t *testing.T) {
	svc, _, profiles, _ := newTestService(storedUser())
	profiles.history = []WatchHistoryEntry{}
	handlers := NewHandlers(svc, t.TempDir())

	req := authedRequest(t, http.MethodGet, "/api/v1/users/watch-history", nil, 7)
	rec := httptest.NewRecorder()
	handlers.HandleWatchHistory()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data    []WatchHistoryEntry `json:"data"`
		Success bool                `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.NotNil(t, envelope.Data)
	assert.Empty(t, envelope.Data)
}
