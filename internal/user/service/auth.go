package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eczanem/pharmatrack-backend/internal/user/events"
	"github.com/eczanem/pharmatrack-backend/internal/user/jwt"
	"github.com/eczanem/pharmatrack-backend/internal/user/repository"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
)

// AuthService handles registration and authentication
type AuthService struct {
	users      *repository.UserRepository
	sessions   *repository.SessionRepository
	jwtManager *jwt.Manager
	publisher  *events.UserEventPublisher
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	jwtManager *jwt.Manager,
	publisher *events.UserEventPublisher,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		publisher:  publisher,
		logger:     log.WithComponent("auth_service"),
	}
}

// RegisterInput describes a new pharmacy account
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	PharmacyName *string
}

// LoginResponse is returned on successful login or refresh
type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	TokenType    string           `json:"token_type"`
	User         *repository.User `json:"user"`
}

// Register creates a new user with a bcrypt password hash
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*repository.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	user := &repository.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
		PharmacyName: input.PharmacyName,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publisher.PublishUserRegistered(ctx, user)

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	return user, nil
}

// Login authenticates by username or email and opens a session
func (s *AuthService) Login(ctx context.Context, login, password, userAgent, ipAddress string) (*LoginResponse, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.InvalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	sessionID := uuid.New().String()
	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())
	if _, err := s.sessions.Create(ctx, sessionID, user.ID, tokens.RefreshToken, expiresAt, userAgent, ipAddress); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         user,
	}, nil
}

// Refresh rotates the refresh token and issues a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.TokenInvalid()
		}
		return nil, err
	}
	if !session.MatchesRefreshToken(refreshToken) {
		// A stale token for a live session means the token leaked or was
		// reused after rotation. Kill the session.
		if err := s.sessions.Revoke(ctx, session.ID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to revoke session")
		}
		return nil, errors.TokenInvalid()
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	if err := s.sessions.RotateRefreshToken(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to rotate refresh token")
		return nil, errors.Internal("failed to refresh session")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         user,
	}, nil
}

// Logout revokes the session holding the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.RevokeByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// GetUser gets a user by id
func (s *AuthService) GetUser(ctx context.Context, id string) (*repository.User, error) {
	return s.users.GetByID(ctx, id)
}
