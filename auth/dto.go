package auth

// RegisterRequest carries the text fields of the multipart registration
// form. The avatar and cover files travel separately.
type RegisterRequest struct {
	FullName string `json:"fullName" example:"Ann Lee"`
	Email    string `json:"email" example:"ann@example.com"`
	Username string `json:"username" example:"annlee"`
	Password string `json:"password" example:"strongpassword123"`
}

// LoginRequest carries login credentials. At least one of email or username
// is required.
type LoginRequest struct {
	Email    string `json:"email,omitempty" example:"ann@example.com"`
	Username string `json:"username,omitempty" example:"annlee"`
	Password string `json:"password" example:"strongpassword123"`
}

// RefreshTokenRequest is the body fallback for clients that do not send the
// refresh token cookie.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// SessionResponse is returned by login and refresh: the user projection plus
// both tokens. The tokens are also set as cookies.
type SessionResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}
