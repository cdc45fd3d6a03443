package auth

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/media"
)

var validate = validator.New()

func isValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// TokenPair bundles a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// Service implements the account operations around registration and
// sessions. Profile and media updates live in the users package.
type Service struct {
	store    CredentialStore
	uploader media.Uploader
	issuer   *TokenIssuer
}

// NewService wires the credential store, media uploader, and token issuer
// into an account service.
func NewService(store CredentialStore, uploader media.Uploader, issuer *TokenIssuer) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		issuer:   issuer,
	}
}

// Register creates a new account. avatarPath is the spooled avatar upload
// and is required; coverPath may be empty. Temp files handed to the uploader
// are removed by it on every path.
func (s *Service) Register(ctx context.Context, req RegisterRequest, avatarPath, coverPath string) (*UserResponse, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if fullName == "" || email == "" || username == "" || req.Password == "" {
		return nil, apperror.NewValidationError("fullName, email, username, and password are required", nil)
	}
	if !isValidEmail(email) {
		return nil, apperror.NewValidationError("invalid email format", nil)
	}
	// Callers must submit a lowercase username; the check is not silently
	// normalized away so the client learns about its bad input.
	if username != strings.ToLower(username) {
		return nil, apperror.NewValidationError("username must be lowercase", nil)
	}

	if _, err := s.store.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, apperror.NewConflictError("user with this username or email already exists", nil)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	if avatarPath == "" {
		return nil, apperror.NewValidationError("avatar file is required", nil)
	}
	avatar, err := s.uploader.Upload(ctx, avatarPath)
	if err != nil {
		return nil, apperror.NewValidationError("failed to upload avatar", err)
	}

	// A failed cover upload is tolerated; the account is created with an
	// empty cover instead.
	var coverURL string
	var coverAssetID *string
	if coverPath != "" {
		cover, err := s.uploader.Upload(ctx, coverPath)
		if err != nil {
			log.Printf("cover upload failed during registration, continuing without cover: %v", err)
		} else {
			coverURL = cover.URL
			coverAssetID = &cover.ID
		}
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	created, err := s.store.Create(ctx, CreateUserParams{
		Username:       strings.ToLower(username),
		Email:          strings.ToLower(email),
		FullName:       fullName,
		HashedPassword: hashedPassword,
		AvatarURL:      avatar.URL,
		AvatarAssetID:  &avatar.ID,
		CoverURL:       coverURL,
		CoverAssetID:   coverAssetID,
	})
	if err != nil {
		return nil, err
	}

	// Read-back consistency check on the freshly created record.
	fetched, err := s.store.FindByID(ctx, created.ID)
	if err != nil {
		return nil, apperror.NewInternalError("something went wrong while registering the user", err)
	}

	resp := fetched.Projection()
	return &resp, nil
}

// Login verifies credentials and establishes a session. At least one of
// email or username must be supplied.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*UserResponse, *TokenPair, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if email == "" && username == "" {
		return nil, nil, apperror.NewValidationError("username or email is required", nil)
	}
	if req.Password == "" {
		return nil, nil, apperror.NewValidationError("password is required", nil)
	}
	if email != "" && !isValidEmail(email) {
		return nil, nil, apperror.NewValidationError("invalid email format", nil)
	}
	if username != "" && username != strings.ToLower(username) {
		return nil, nil, apperror.NewValidationError("username must be lowercase", nil)
	}

	user, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, nil, err
	}

	if !user.VerifyPassword(req.Password) {
		return nil, nil, apperror.NewUnauthorizedError("invalid user credentials", nil)
	}

	pair, err := s.rotate(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	resp := user.Projection()
	return &resp, pair, nil
}

// Logout clears the stored refresh token, ending the session.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.store.UpdateRefreshToken(ctx, userID, nil)
}

// RefreshAccessToken exchanges a valid, current refresh token for a new
// token pair. A token that verifies but does not match the stored one is
// treated as expired or already used, which gives refresh tokens single-use
// rotation semantics.
func (s *Service) RefreshAccessToken(ctx context.Context, incomingToken string) (*TokenPair, error) {
	if incomingToken == "" {
		return nil, apperror.NewUnauthorizedError("unauthorized request", nil)
	}

	claims, err := s.issuer.VerifyRefreshToken(incomingToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorizedError("invalid refresh token", err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != incomingToken {
		return nil, apperror.NewUnauthorizedError("refresh token is expired or used", nil)
	}

	return s.rotate(ctx, user)
}

// ChangePassword verifies the old password and persists a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.NewValidationError("oldPassword and newPassword are required", nil)
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return apperror.NewUnauthorizedError("invalid old password", nil)
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return apperror.NewInternalError("failed to hash password", err)
	}
	return s.store.UpdatePassword(ctx, userID, hashed)
}

// CurrentUser returns the authenticated user's projection.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*UserResponse, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.Projection()
	return &resp, nil
}

// rotate issues a fresh pair and persists the new refresh token as the only
// valid one for the user.
func (s *Service) rotate(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, accessExpiresAt, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate access token", err)
	}
	refreshToken, err := s.issuer.IssueRefreshToken(user)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate refresh token", err)
	}

	if err := s.store.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, apperror.NewInternalError("failed to persist refresh token", err)
	}

	return &TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: accessExpiresAt,
	}, nil
}
