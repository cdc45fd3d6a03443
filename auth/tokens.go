package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/vidstream-go/apperror"
	"github.com/user/vidstream-go/config"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	tokenIssuer = "vidstream"
)

// AccessClaims is the payload of an access token. It identifies the user
// fully so authenticated handlers rarely need a lookup.
type AccessClaims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token: the user id and nothing
// else.
type RefreshClaims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the two token classes. Access and refresh
// tokens use separate secrets and lifetimes from AuthConfig.
type TokenIssuer struct {
	cfg config.AuthConfig
}

// NewTokenIssuer creates a TokenIssuer from the auth configuration.
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

func registeredClaims(userID int64, expiresAt time.Time) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   fmt.Sprintf("%d", userID),
	}
}

// IssueAccessToken signs a short-lived access token for user.
func (t *TokenIssuer) IssueAccessToken(user *User) (string, time.Time, error) {
	expiresAt := time.Now().Add(t.cfg.AccessTokenDuration)
	claims := &AccessClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Username:         user.Username,
		FullName:         user.FullName,
		TokenType:        tokenTypeAccess,
		RegisteredClaims: registeredClaims(user.ID, expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken signs a long-lived refresh token for user.
func (t *TokenIssuer) IssueRefreshToken(user *User) (string, error) {
	expiresAt := time.Now().Add(t.cfg.RefreshTokenDuration)
	claims := &RefreshClaims{
		UserID:           user.ID,
		TokenType:        tokenTypeRefresh,
		RegisteredClaims: registeredClaims(user.ID, expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.RefreshTokenSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

func hmacKeyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}

// VerifyAccessToken parses and validates an access token. Any failure, from
// a bad signature to a wrong token type, is an UnauthorizedError.
func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKeyFunc(t.cfg.AccessTokenSecret))
	if err != nil {
		return nil, apperror.NewUnauthorizedError("invalid access token", err)
	}
	if !token.Valid {
		return nil, apperror.NewUnauthorizedError("invalid access token", errors.New("token is invalid"))
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, apperror.NewUnauthorizedError("invalid access token", fmt.Errorf("unexpected token type %q", claims.TokenType))
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token in the same way.
func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKeyFunc(t.cfg.RefreshTokenSecret))
	if err != nil {
		return nil, apperror.NewUnauthorizedError("invalid refresh token", err)
	}
	if !token.Valid {
		return nil, apperror.NewUnauthorizedError("invalid refresh token", errors.New("token is invalid"))
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, apperror.NewUnauthorizedError("invalid refresh token", fmt.Errorf("unexpected token type %q", claims.TokenType))
	}
	return claims, nil
}
