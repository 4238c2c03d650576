package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell/publisher/cmd/publisher/models"
	"github.com/inkwell/publisher/common/apperr"
	"github.com/inkwell/publisher/common/config"
	"github.com/inkwell/publisher/common/logger"
)

// UserStore is the storage contract the user service depends on
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UserService handles registration and credential issuance
type UserService struct {
	users UserStore
	auth  config.AuthConfig
	log   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, auth config.AuthConfig, log *logger.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		log:   log,
	}
}

// Register creates a new user with a bcrypt-hashed password
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}

	// The unique index on users.email backstops this check; a racing
	// duplicate insert surfaces as the same validation error
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Validation("email already registered")
	} else if !apperr.IsKind(err, apperr.KindNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("registered user", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair
func (s *UserService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.Unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	pair, err := s.generateTokens(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return pair, nil
}

// Authenticate resolves an access token to its user. Any parse or lookup
// failure yields Unauthenticated; callers treat that as anonymous.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := s.parseAccessToken(accessToken)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid or expired token")
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token subject")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated("unknown user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return user, nil
}
