package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/greengomarket/greengo-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          *string    `json:"role,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	Provider      string     `json:"provider"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// PasswordHash is nil for federated sign-ups.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash *string
	Role         *string
	Provider     string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		Provider:      u.Provider,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	provider := c.Provider
	if provider == "" {
		provider = "password"
	}

	return &models.User{
		ID:           uuid.NewString(),
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		Provider:     provider,
	}
}
