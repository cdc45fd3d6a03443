package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/vidstream-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// CreateUserParams carries the fields persisted when a new account is
// created. Password must already be hashed.
type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      string
	AvatarAssetID  *string
	CoverURL       string
	CoverAssetID   *string
}

// CredentialStore is the persistence boundary for user records. The pgx
// implementation lives in this package; tests substitute fakes.
type CredentialStore interface {
	Create(ctx context.Context, p CreateUserParams) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	// FindByUsernameOrEmail matches either identifier; pass "" for the one
	// that is absent.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// UpdateRefreshToken persists the current refresh token, or clears it
	// when token is nil. This write path skips every other field so an
	// unrelated validation problem can never block session persistence.
	UpdateRefreshToken(ctx context.Context, id int64, token *string) error
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	UpdateProfile(ctx context.Context, id int64, fullName, email string) (*User, error)
	UpdateAvatar(ctx context.Context, id int64, url, assetID string) (*User, error)
	UpdateCover(ctx context.Context, id int64, url, assetID string) (*User, error)
}

const userColumns = `id, username, email, full_name, password, avatar_url, avatar_asset_id,
	cover_url, cover_asset_id, refresh_token, created_at, updated_at`

// PGCredentialStore implements CredentialStore on a pgx connection pool.
type PGCredentialStore struct {
	db *pgxpool.Pool
}

// NewPGCredentialStore creates a CredentialStore backed by pool.
func NewPGCredentialStore(pool *pgxpool.Pool) *PGCredentialStore {
	return &PGCredentialStore{db: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.HashedPassword,
		&u.AvatarURL,
		&u.AvatarAssetID,
		&u.CoverURL,
		&u.CoverAssetID,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PGCredentialStore) Create(ctx context.Context, p CreateUserParams) (*User, error) {
	query := `INSERT INTO users (username, email, full_name, password, avatar_url, avatar_asset_id, cover_url, cover_asset_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING ` + userColumns
	row := s.db.QueryRow(ctx, query,
		p.Username, p.Email, p.FullName, p.HashedPassword,
		p.AvatarURL, p.AvatarAssetID, p.CoverURL, p.CoverAssetID,
	)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return nil, apperror.NewConflictError("username already exists", nil)
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, apperror.NewConflictError("email already exists", nil)
			}
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

func (s *PGCredentialStore) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by id", err)
	}
	return user, nil
}

func (s *PGCredentialStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $2`
	user, err := scanUser(s.db.QueryRow(ctx, query, username, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user does not exist", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by username or email", err)
	}
	return user, nil
}

func (s *PGCredentialStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(s.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with username '%s' not found", username), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by username", err)
	}
	return user, nil
}

func (s *PGCredentialStore) UpdateRefreshToken(ctx context.Context, id int64, token *string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET refresh_token = $1 WHERE id = $2`, token, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to update refresh token", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	return nil
}

func (s *PGCredentialStore) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, hashedPassword, id)
	if err != nil {
		return apperror.NewDatabaseError("failed to update password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
	}
	return nil
}

func (s *PGCredentialStore) UpdateProfile(ctx context.Context, id int64, fullName, email string) (*User, error) {
	query := `UPDATE users SET full_name = $1, email = $2 WHERE id = $3 RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRow(ctx, query, fullName, strings.ToLower(email), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return nil, apperror.NewConflictError("email already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update profile", err)
	}
	return user, nil
}

func (s *PGCredentialStore) UpdateAvatar(ctx context.Context, id int64, url, assetID string) (*User, error) {
	query := `UPDATE users SET avatar_url = $1, avatar_asset_id = $2 WHERE id = $3 RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRow(ctx, query, url, assetID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to update avatar", err)
	}
	return user, nil
}

func (s *PGCredentialStore) UpdateCover(ctx context.Context, id int64, url, assetID string) (*User, error) {
	query := `UPDATE users SET cover_url = $1, cover_asset_id = $2 WHERE id = $3 RETURNING ` + userColumns
	user, err := scanUser(s.db.QueryRow(ctx, query, url, assetID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to update cover image", err)
	}
	return user, nil
}
