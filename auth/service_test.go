package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/media"
)

// fakeCredentialStore is an in-memory CredentialStore for service tests.
type fakeCredentialStore struct {
	nextID int64
	users  map[int64]*User
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{nextID: 1, users: map[int64]*User{}}
}

func (f *fakeCredentialStore) Create(_ context.Context, p CreateUserParams) (*User, error) {
	for _, u := range f.users {
		if u.Username == p.Username {
			return nil, apperror.NewConflictError("username already exists", nil)
		}
		if u.Email == p.Email {
			return nil, apperror.NewConflictError("email already exists", nil)
		}
	}
	u := &User{
		ID:             f.nextID,
		Username:       p.Username,
		Email:          p.Email,
		FullName:       p.FullName,
		HashedPassword: p.HashedPassword,
		AvatarURL:      p.AvatarURL,
		AvatarAssetID:  p.AvatarAssetID,
		CoverURL:       p.CoverURL,
		CoverAssetID:   p.CoverAssetID,
	}
	f.nextID++
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeCredentialStore) FindByID(_ context.Context, id int64) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeCredentialStore) FindByUsernameOrEmail(_ context.Context, username, email string) (*User, error) {
	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFoundError("user does not exist", nil)
}

func (f *fakeCredentialStore) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFoundError(fmt.Sprintf("user with username '%s' not found", username), nil)
}

func (f *fakeCredentialStore) UpdateRefreshToken(_ context.Context, id int64, token *string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	u.RefreshToken = token
	return nil
}

func (f *fakeCredentialStore) UpdatePassword(_ context.Context, id int64, hashedPassword string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	u.HashedPassword = hashedPassword
	return nil
}

func (f *fakeCredentialStore) UpdateProfile(_ context.Context, id int64, fullName, email string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	u.FullName = fullName
	u.Email = email
	copied := *u
	return &copied, nil
}

func (f *fakeCredentialStore) UpdateAvatar(_ context.Context, id int64, url, assetID string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	u.AvatarURL = url
	u.AvatarAssetID = &assetID
	copied := *u
	return &copied, nil
}

func (f *fakeCredentialStore) UpdateCover(_ context.Context, id int64, url, assetID string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	u.CoverURL = url
	u.CoverAssetID = &assetID
	copied := *u
	return &copied, nil
}

// fakeUploader records uploads and deletions without touching disk or the
// network. uploadErrs is consumed one error per Upload call.
type fakeUploader struct {
	uploadCount int
	uploadErrs  []error
	deleted     []string
	deleteOK    bool
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (*media.Asset, error) {
	f.uploadCount++
	if len(f.uploadErrs) > 0 {
		err := f.uploadErrs[0]
		f.uploadErrs = f.uploadErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	id := fmt.Sprintf("asset-%d", f.uploadCount)
	return &media.Asset{URL: "https://media.test/" + id, ID: id}, nil
}

func (f *fakeUploader) Delete(_ context.Context, assetID string) bool {
	f.deleted = append(f.deleted, assetID)
	return f.deleteOK
}

func newTestService() (*Service, *fakeCredentialStore, *fakeUploader) {
	store := newFakeCredentialStore()
	uploader := &fakeUploader{deleteOK: true}
	issuer := NewTokenIssuer(testAuthConfig())
	return NewService(store, uploader, issuer), store, uploader
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "s3cret-pass",
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	svc, store, _ := newTestService()

	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "/tmp/cover.png")
	require.NoError(t, err)

	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, "https://media.test/asset-1", resp.Avatar)
	assert.Equal(t, "https://media.test/asset-2", resp.CoverImage)

	stored := store.users[resp.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret-pass", stored.HashedPassword)
	assert.True(t, stored.VerifyPassword("s3cret-pass"))
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"missing full name", func(r *RegisterRequest) { r.FullName = "  " }},
		{"missing password", func(r *RegisterRequest) { r.Password = "" }},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"uppercase username", func(r *RegisterRequest) { r.Username = "Alice" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, uploader := newTestService()
			req := registerRequest()
			tt.mutate(&req)

			_, err := svc.Register(context.Background(), req, "/tmp/avatar.png", "")
			assert.True(t, apperror.IsValidationError(err))
			assert.Zero(t, uploader.uploadCount)
		})
	}
}

func TestRegisterRequiresAvatar(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), registerRequest(), "", "")
	assert.True(t, apperror.IsValidationError(err))
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)

	req := registerRequest()
	req.Email = "other@example.com" // same username
	_, err = svc.Register(context.Background(), req, "/tmp/avatar.png", "")
	assert.True(t, apperror.IsConflictError(err))

	req = registerRequest()
	req.Username = "alice2" // same email
	_, err = svc.Register(context.Background(), req, "/tmp/avatar.png", "")
	assert.True(t, apperror.IsConflictError(err))
}

func TestRegisterFailedAvatarUploadIsRejected(t *testing.T) {
	svc, store, uploader := newTestService()
	uploader.uploadErrs = []error{fmt.Errorf("put failed")}

	_, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	assert.True(t, apperror.IsValidationError(err))
	assert.Empty(t, store.users)
}

func TestRegisterToleratesFailedCoverUpload(t *testing.T) {
	svc, _, uploader := newTestService()
	uploader.uploadErrs = []error{nil, fmt.Errorf("put failed")}

	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "/tmp/cover.png")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Avatar)
	assert.Empty(t, resp.CoverImage)
}

func TestLoginWithUsername(t *testing.T) {
	svc, store, _ := newTestService()
	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)

	user, pair, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, resp.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	stored := store.users[resp.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *stored.RefreshToken)
}

func TestLoginWithEmail(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginRequiresIdentifier(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Login(context.Background(), LoginRequest{Password: "whatever"})
	assert.True(t, apperror.IsValidationError(err))
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "whatever"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})
	assert.True(t, apperror.IsUnauthorizedError(err))
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, store, _ := newTestService()
	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)
	_, pair, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	rotated, err := svc.RefreshAccessToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	stored := store.users[resp.ID]
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, *stored.RefreshToken)
}

func TestRefreshRejectsReusedToken(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)
	_, pair, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.RefreshAccessToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	// The pre-rotation token still verifies cryptographically but is no
	// longer the stored one.
	_, err = svc.RefreshAccessToken(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorizedError(err))
	assert.Contains(t, err.Error(), "expired or used")
}

func TestRefreshRejectsEmptyToken(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RefreshAccessToken(context.Background(), "")
	assert.True(t, apperror.IsUnauthorizedError(err))
}

func TestLogoutEndsSession(t *testing.T) {
	svc, store, _ := newTestService()
	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)
	_, pair, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), resp.ID))
	assert.Nil(t, store.users[resp.ID].RefreshToken)

	_, err = svc.RefreshAccessToken(context.Background(), pair.RefreshToken)
	assert.True(t, apperror.IsUnauthorizedError(err))
}

func TestChangePassword(t *testing.T) {
	svc, store, _ := newTestService()
	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), resp.ID, "s3cret-pass", "new-pass")
	require.NoError(t, err)
	assert.True(t, store.users[resp.ID].VerifyPassword("new-pass"))

	err = svc.ChangePassword(context.Background(), resp.ID, "s3cret-pass", "another")
	assert.True(t, apperror.IsUnauthorizedError(err))

	err = svc.ChangePassword(context.Background(), resp.ID, "", "another")
	assert.True(t, apperror.IsValidationError(err))
}

func TestCurrentUserProjectionHasNoSecrets(t *testing.T) {
	svc, _, _ := newTestService()
	resp, err := svc.Register(context.Background(), registerRequest(), "/tmp/avatar.png", "")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)

	current, err := svc.CurrentUser(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", current.Username)
	// UserResponse carries no password hash or refresh token by construction;
	// this guards against the projection ever widening.
	assert.NotContains(t, fmt.Sprintf("%+v", *current), "s3cret-pass")
	assert.NotContains(t, fmt.Sprintf("%+v", *current), "$2a$")
}
