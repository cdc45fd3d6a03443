package users

import (
	"context"
	"strings"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/auth"
	"github.com/user/vidstream-go/media"
)

// Service implements profile and media updates plus the channel and
// watch-history reads.
type Service struct {
	store    auth.CredentialStore
	profiles ProfileStore
	uploader media.Uploader
}

// NewService wires the credential store, profile store, and media uploader.
func NewService(store auth.CredentialStore, profiles ProfileStore, uploader media.Uploader) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		uploader: uploader,
	}
}

// UpdateProfile replaces the user's full name and email. Both fields are
// required.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*auth.UserResponse, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	if fullName == "" || email == "" {
		return nil, apperror.NewValidationError("fullName and email are required", nil)
	}

	user, err := s.store.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	resp := user.Projection()
	return &resp, nil
}

// UpdateAvatar replaces the user's avatar. The new asset is uploaded and
// committed first; the previous asset is deleted afterwards. A failed delete
// leaves the new URL persisted and surfaces an error, intentionally without
// rolling the swap back.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, localPath string) (*auth.UserResponse, error) {
	return s.replaceMedia(ctx, userID, localPath, "avatar",
		func(u *auth.User) *string { return u.AvatarAssetID },
		s.store.UpdateAvatar,
	)
}

// UpdateCoverImage replaces the user's cover image with the same sequencing
// as UpdateAvatar.
func (s *Service) UpdateCoverImage(ctx context.Context, userID int64, localPath string) (*auth.UserResponse, error) {
	return s.replaceMedia(ctx, userID, localPath, "cover image",
		func(u *auth.User) *string { return u.CoverAssetID },
		s.store.UpdateCover,
	)
}

func (s *Service) replaceMedia(
	ctx context.Context,
	userID int64,
	localPath string,
	kind string,
	previousAssetID func(*auth.User) *string,
	persist func(ctx context.Context, id int64, url, assetID string) (*auth.User, error),
) (*auth.UserResponse, error) {
	if localPath == "" {
		return nil, apperror.NewValidationError(kind+" file is required", nil)
	}

	// The previous asset id is captured from the pre-update record; reading
	// it after the swap would return the new id.
	current, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := previousAssetID(current)

	asset, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, apperror.NewValidationError("failed to upload "+kind, err)
	}

	updated, err := persist(ctx, userID, asset.URL, asset.ID)
	if err != nil {
		return nil, err
	}

	if previous == nil {
		return nil, apperror.NewValidationError("no previous "+kind+" asset to delete", nil)
	}
	if !s.uploader.Delete(ctx, *previous) {
		return nil, apperror.NewValidationError("failed to delete previous "+kind, nil)
	}

	resp := updated.Projection()
	return &resp, nil
}

// ChannelProfile returns the channel page for username as seen by viewerID.
func (s *Service) ChannelProfile(ctx context.Context, username string, viewerID int64) (*ChannelProfileResponse, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.NewValidationError("username is required", nil)
	}
	return s.profiles.ChannelProfile(ctx, username, viewerID)
}

// WatchHistory returns the user's watched videos, most recent first.
func (s *Service) WatchHistory(ctx context.Context, userID int64) ([]WatchHistoryEntry, error) {
	return s.profiles.WatchHistory(ctx, userID)
}
