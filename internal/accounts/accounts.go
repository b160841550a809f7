// Package accounts registers users and authenticates them at login.
package accounts

import (
	"auction-platform/internal/biddingerrors"
	"auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/utils"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"code.cloudfoundry.org/clock"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// TokenIssuer signs session tokens for authenticated users
type TokenIssuer interface {
	Issue(user models.User) (string, error)
}

// Service manages user accounts
type Service struct {
	repo   repository.UserDB
	tokens TokenIssuer
	clock  clock.Clock
	cost   int
}

// NewService creates an accounts Service
func NewService(repo repository.UserDB, tokens TokenIssuer, clk clock.Clock) *Service {
	return &Service{repo: repo, tokens: tokens, clock: clk, cost: bcrypt.DefaultCost}
}

// Register creates a new account with a hashed password
func (s *Service) Register(ctx context.Context, username, password, email string, role models.Role) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "":
		return models.User{}, fmt.Errorf("accounts: %w - username is required", biddingerrors.ErrInvalidUser)
	case len(password) < minPasswordLength:
		return models.User{}, fmt.Errorf("accounts: %w - password must be at least %d characters", biddingerrors.ErrInvalidUser, minPasswordLength)
	case !role.Valid():
		return models.User{}, fmt.Errorf("accounts: %w - unknown role %q", biddingerrors.ErrInvalidUser, role)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, fmt.Errorf("accounts: %w - invalid email address", biddingerrors.ErrInvalidUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("accounts: hash password: %w", err)
	}

	user := models.User{
		UserID:       utils.GenerateID(),
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		Role:         role,
		CreatedAt:    s.clock.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("accounts: failed to create user %s: %w", username, err)
	}

	utils.Info("user registered", map[string]any{
		"user_id": user.UserID,
		"role":    string(user.Role),
	})
	return user, nil
}

// Login checks credentials and returns the user with a signed token
func (s *Service) Login(ctx context.Context, username, password string) (models.User, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, biddingerrors.ErrUserNotFound) {
			return models.User{}, "", biddingerrors.ErrInvalidCredentials
		}
		return models.User{}, "", fmt.Errorf("accounts: failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, "", biddingerrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("accounts: %w", err)
	}
	return user, token, nil
}

// GetProfile returns the account for userID
func (s *Service) GetProfile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("accounts: %w", err)
	}
	return user, nil
}
