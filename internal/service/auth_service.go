package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/model"
	"coursehub/internal/repository"
	"coursehub/internal/util"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRole is returned for roles outside instructor/student.
	ErrInvalidRole = errors.New("invalid role")
)

// TokenPair bundles the issued access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

// AuthService issues and verifies credentials.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName, role string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error)
	// Refresh validates a refresh token and re-issues an access token bound
	// to the same subject.
	Refresh(ctx context.Context, refreshToken string) (*model.User, string, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, cfg *config.Config, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger.With().Str("service", "AuthService").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, email, password, firstName, lastName, role string) (*model.User, error) {
	if role != model.RoleInstructor && role != model.RoleStudent {
		return nil, ErrInvalidRole
	}

	taken, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate tokens")
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*model.User, string, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	accessToken, err := util.GenerateToken(user.ID, user.Role, s.cfg.AccessTokenSecret, s.accessTTL())
	if err != nil {
		return nil, "", fmt.Errorf("generate access token: %w", err)
	}
	return user, accessToken, nil
}

func (s *authService) issueTokens(user *model.User) (*TokenPair, error) {
	accessToken, err := util.GenerateToken(user.ID, user.Role, s.cfg.AccessTokenSecret, s.accessTTL())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshTTL := time.Duration(s.cfg.RefreshTokenTTLHrs) * time.Hour
	refreshToken, err := util.GenerateToken(user.ID, user.Role, s.cfg.RefreshTokenSecret, refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, RefreshTTL: refreshTTL}, nil
}

func (s *authService) accessTTL() time.Duration {
	return time.Duration(s.cfg.AccessTokenTTLMin) * time.Minute
}
