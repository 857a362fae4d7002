package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials forwarded to the school backend.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// User is the authenticated operator as returned by the backend.
type User struct {
	ID       FlexString `json:"id"`
	Username string     `json:"username"`
	Name     string     `json:"nombre,omitempty"`
	Role     string     `json:"rol,omitempty"`
}

// LoginResponse returns the issued session token and user info.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
