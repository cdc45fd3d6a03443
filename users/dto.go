// Package users covers profile management and the read-side channel and
// watch-history endpoints.
package users

import "time"

// UpdateProfileRequest updates the mutable text fields of a profile. Both
// fields are required.
type UpdateProfileRequest struct {
	FullName string `json:"fullName" example:"Ann Lee"`
	Email    string `json:"email" example:"ann@example.com"`
}

// ChannelProfileResponse is a channel page: the owner's public profile plus
// subscription aggregates relative to the requesting user.
type ChannelProfileResponse struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"fullName"`
	Email             string `json:"email"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// VideoOwner is the projection of a video's owner embedded in watch-history
// entries.
type VideoOwner struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// WatchHistoryEntry is one watched video with its owner projected.
type WatchHistoryEntry struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	VideoURL     string     `json:"videoUrl"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	Duration     float64    `json:"duration"`
	Owner        VideoOwner `json:"owner"`
	WatchedAt    time.Time  `json:"watchedAt"`
}
