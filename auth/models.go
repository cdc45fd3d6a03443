// Package auth owns the account lifecycle: registration, login, token
// issuance and rotation, password changes, and the middleware that guards
// authenticated routes.
package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the persisted account record. Secret-bearing fields carry `json:"-"`
// so an accidental direct serialization still never leaks them; API responses
// go through Projection regardless.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	HashedPassword string    `json:"-"`
	AvatarURL      string    `json:"avatar"`
	AvatarAssetID  *string   `json:"-"`
	CoverURL       string    `json:"coverImage"`
	CoverAssetID   *string   `json:"-"`
	RefreshToken   *string   `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored hash.
func (u *User) VerifyPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(plain)) == nil
}

// UserResponse is the projection of a User returned to clients. It carries
// no password hash, refresh token, or internal asset ids.
type UserResponse struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Projection converts a User to its client-facing shape.
func (u *User) Projection() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.AvatarURL,
		CoverImage: u.CoverURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
