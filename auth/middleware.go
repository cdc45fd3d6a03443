package auth

import (
	"net/http"
	"strings"

	"github.com/user/vidstream-go/apperror"
)

// AccessTokenCookie and RefreshTokenCookie are the auth cookie names.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// accessTokenFromRequest pulls the access token from the Authorization
// header, falling back to the accessToken cookie.
func accessTokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// JWTMiddleware verifies the access token on every request and stores the
// claims in the request context for handlers.
func JWTMiddleware(issuer *TokenIssuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := accessTokenFromRequest(r)
			if tokenString == "" {
				WriteError(w, r, apperror.NewUnauthorizedError("missing access token", nil))
				return
			}

			claims, err := issuer.VerifyAccessToken(tokenString)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}
