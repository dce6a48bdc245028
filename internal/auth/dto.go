package auth

import "github.com/greengomarket/greengo-backend/internal/users"

// RegisterInput holds a password sign-up submission.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds a password sign-in submission.
type LoginInput struct {
	Email    string
	Password string
}

// FederatedInput holds the identity asserted by an external provider. The
// provider has already authenticated the user; we only record who they are.
type FederatedInput struct {
	Name     string
	Email    string
	Provider string
}

// AuthResult bundles the signed-in user with a fresh token pair.
type AuthResult struct {
	User         *users.UserDTO `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}
