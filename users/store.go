package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/vidstream-go/apperror"
)

// ProfileStore is the read-side persistence boundary for channel and
// watch-history aggregation queries.
type ProfileStore interface {
	ChannelProfile(ctx context.Context, username string, viewerID int64) (*ChannelProfileResponse, error)
	WatchHistory(ctx context.Context, userID int64) ([]WatchHistoryEntry, error)
}

// PGProfileStore implements ProfileStore on a pgx connection pool with
// explicit SQL aggregation.
type PGProfileStore struct {
	db *pgxpool.Pool
}

// NewPGProfileStore creates a ProfileStore backed by pool.
func NewPGProfileStore(pool *pgxpool.Pool) *PGProfileStore {
	return &PGProfileStore{db: pool}
}

func (s *PGProfileStore) ChannelProfile(ctx context.Context, username string, viewerID int64) (*ChannelProfileResponse, error) {
	query := `
		SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_url,
		       (SELECT count(*) FROM subscriptions sub WHERE sub.channel_id = u.id)    AS subscriber_count,
		       (SELECT count(*) FROM subscriptions sub WHERE sub.subscriber_id = u.id) AS subscribed_to_count,
		       EXISTS (
		           SELECT 1 FROM subscriptions sub
		           WHERE sub.channel_id = u.id AND sub.subscriber_id = $2
		       ) AS is_subscribed
		FROM users u
		WHERE u.username = $1
	`
	var profile ChannelProfileResponse
	err := s.db.QueryRow(ctx, query, username, viewerID).Scan(
		&profile.ID,
		&profile.Username,
		&profile.FullName,
		&profile.Email,
		&profile.Avatar,
		&profile.CoverImage,
		&profile.SubscriberCount,
		&profile.SubscribedToCount,
		&profile.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("channel '%s' does not exist", username), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get channel profile", err)
	}
	return &profile, nil
}

func (s *PGProfileStore) WatchHistory(ctx context.Context, userID int64) ([]WatchHistoryEntry, error) {
	query := `
		SELECT v.id, v.title, v.video_url, v.thumbnail_url, v.duration, wh.watched_at,
		       o.full_name, o.username, o.avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.watched_at DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to get watch history", err)
	}
	defer rows.Close()

	history := []WatchHistoryEntry{}
	for rows.Next() {
		var entry WatchHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&entry.VideoURL,
			&entry.ThumbnailURL,
			&entry.Duration,
			&entry.WatchedAt,
			&entry.Owner.FullName,
			&entry.Owner.Username,
			&entry.Owner.Avatar,
		); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan watch history row", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read watch history", err)
	}
	return history, nil
}
