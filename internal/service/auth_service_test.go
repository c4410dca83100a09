package service

import (
	"context"
	"errors"
	"testing"

	"coursehub/internal/config"
	"coursehub/internal/model"
	"coursehub/internal/util"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTLMin:  15,
		RefreshTokenTTLHrs: 168,
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testAuthConfig(), zerolog.Nop())

	user, err := svc.Register(context.Background(), "a@b.com", "hunter22", "Ada", "Lovelace", model.RoleStudent)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.PasswordHash == "hunter22" {
		t.Fatal("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")); err != nil {
		t.Fatalf("stored hash does not match the password: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testAuthConfig(), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "pw1", "A", "B", model.RoleStudent); err != nil {
		t.Fatalf("first register returned error: %v", err)
	}
	if _, err := svc.Register(ctx, "a@b.com", "pw2", "C", "D", model.RoleInstructor); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(repo.users))
	}
}

func TestRegisterInvalidRole(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testAuthConfig(), zerolog.Nop())
	if _, err := svc.Register(context.Background(), "a@b.com", "pw", "A", "B", "admin"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := testAuthConfig()
	svc := NewAuthService(repo, cfg, zerolog.Nop())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@b.com", "hunter22", "Ada", "Lovelace", model.RoleInstructor)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	user, pair, err := svc.Login(ctx, "a@b.com", "hunter22")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, user.ID)
	}

	claims, err := util.ValidateToken(pair.AccessToken, cfg.AccessTokenSecret)
	if err != nil {
		t.Fatalf("access token did not validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != model.RoleInstructor {
		t.Fatalf("unexpected access token claims: %+v", claims)
	}
	if _, err := util.ValidateToken(pair.RefreshToken, cfg.RefreshTokenSecret); err != nil {
		t.Fatalf("refresh token did not validate: %v", err)
	}
	// Tokens are signed with different secrets.
	if _, err := util.ValidateToken(pair.RefreshToken, cfg.AccessTokenSecret); err == nil {
		t.Fatal("refresh token must not validate against the access secret")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testAuthConfig(), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "hunter22", "A", "B", model.RoleStudent); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "missing@b.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRefreshReissuesAccessToken(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := testAuthConfig()
	svc := NewAuthService(repo, cfg, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "hunter22", "A", "B", model.RoleStudent); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	user, pair, err := svc.Login(ctx, "a@b.com", "hunter22")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	refreshed, accessToken, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if refreshed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, refreshed.ID)
	}
	claims, err := util.ValidateToken(accessToken, cfg.AccessTokenSecret)
	if err != nil {
		t.Fatalf("re-issued access token did not validate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.UserID)
	}

	// An access token is not accepted as a refresh token.
	if _, _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for access token, got %v", err)
	}
}
