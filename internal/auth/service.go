package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/greengomarket/greengo-backend/internal/cart"
	"github.com/greengomarket/greengo-backend/internal/users"
	pkgauth "github.com/greengomarket/greengo-backend/pkg/auth"
	"github.com/greengomarket/greengo-backend/pkg/auth/session"
	"github.com/greengomarket/greengo-backend/pkg/config"
	"github.com/greengomarket/greengo-backend/pkg/db"
	"github.com/greengomarket/greengo-backend/pkg/db/models"
	"github.com/greengomarket/greengo-backend/pkg/enums"
	pkgerrors "github.com/greengomarket/greengo-backend/pkg/errors"
	"github.com/greengomarket/greengo-backend/pkg/logger"
	"github.com/greengomarket/greengo-backend/pkg/security"
)

// Service exposes account lifecycle and session operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput, guestToken string) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput, guestToken string) (*AuthResult, error)
	LoginFederated(ctx context.Context, input FederatedInput, guestToken string) (*AuthResult, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error
	CurrentUser(ctx context.Context, userID string) (*users.UserDTO, error)
}

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type cartMerger interface {
	MergeGuestCart(ctx context.Context, userID, guestToken, accessID string) (cart.MergeOutcome, error)
}

type service struct {
	repo     userStore
	sessions sessionManager
	carts    cartMerger
	cfg      *config.Config
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the auth service.
func NewService(repo userStore, sessions sessionManager, carts cartMerger, cfg *config.Config, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart merger required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		carts:    carts,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Register creates a password account and signs the user straight in.
func (s *service) Register(ctx context.Context, input RegisterInput, guestToken string) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < s.cfg.Password.MinLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", s.cfg.Password.MinLength))
	}

	hash, err := security.HashPassword(input.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user, err := s.repo.Create(ctx, users.CreateUserDTO{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: &hash,
		Provider:     "password",
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Email already registered!")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating user")
	}

	return s.establishSession(ctx, user, guestToken)
}

// Login validates password credentials and issues a token pair.
func (s *service) Login(ctx context.Context, input LoginInput, guestToken string) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Email not found!")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}
	if user.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Incorrect password!")
	}

	ok, err := security.VerifyPassword(input.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Incorrect password!")
	}

	return s.establishSession(ctx, user, guestToken)
}

// LoginFederated signs in a user asserted by an external identity provider,
// creating the account on first contact.
func (s *service) LoginFederated(ctx context.Context, input FederatedInput, guestToken string) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	provider := strings.TrimSpace(input.Provider)
	if provider == "" || provider == "password" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a federated provider is required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
		}
		user, err = s.repo.Create(ctx, users.CreateUserDTO{
			Name:     strings.TrimSpace(input.Name),
			Email:    email,
			Provider: provider,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "Email already registered!")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating user")
		}
	}

	return s.establishSession(ctx, user, guestToken)
}

// Refresh rotates the refresh token and mints a new access token. The old
// access token may already be expired; only its signature and jti matter.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.cfg.JWT, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotating session")
	}

	// Re-read the account so role or email changes land in the new token.
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}

	signed, err := s.mintToken(user, newAccessID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:         users.FromModel(user),
		AccessToken:  signed,
		RefreshToken: newRefresh,
	}, nil
}

// Logout revokes the refresh session tied to the token's access id.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) CurrentUser(ctx context.Context, userID string) (*users.UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}
	return users.FromModel(user), nil
}

// establishSession mints the token pair and runs the post-login side
// effects. The guest cart merge is best-effort: a failed merge never blocks
// the sign-in, and the merge guard stays releasable for the next attempt.
func (s *service) establishSession(ctx context.Context, user *models.User, guestToken string) (*AuthResult, error) {
	accessID := session.NewAccessID()

	signed, err := s.mintToken(user, accessID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating session")
	}

	if guestToken != "" {
		if _, err := s.carts.MergeGuestCart(ctx, user.ID, guestToken, accessID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "guest cart merge failed during sign-in")
		}
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "recording last login failed")
	}

	return &AuthResult{
		User:         users.FromModel(user),
		AccessToken:  signed,
		RefreshToken: refresh,
	}, nil
}

func (s *service) mintToken(user *models.User, accessID string) (string, error) {
	var role *enums.UserRole
	if user.Role != nil {
		parsed, err := enums.ParseUserRole(*user.Role)
		if err == nil {
			role = &parsed
		}
	}

	signed, err := pkgauth.MintAccessToken(s.cfg.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
