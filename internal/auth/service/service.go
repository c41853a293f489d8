// Package service implements admin authentication with opaque
// server-side sessions. The raw session token only ever lives in the
// cookie; the database stores its SHA-256 hash.
package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"funnel_backend/internal/auth/repository"
	"funnel_backend/internal/auth/token"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"
)

const sessionTokenSize = 32

type Service struct {
	repo *repository.Repository
	cfg  config.SessionConfig
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.SessionConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

type LoginResult struct {
	Admin        repository.AdminUser
	SessionToken string
	ExpiresAt    time.Time
}

// Login verifies credentials and mints a new session. The same
// unauthorized error comes back for a missing user and a bad password.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	admin, err := s.repo.FindAdminByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// burn a bcrypt comparison anyway so the two failure paths take
		// comparable time
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
		s.log.AuthEvent("login", email, false, "unknown email")
		return LoginResult{}, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "failed to look up admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return LoginResult{}, apperr.Unauthorized("invalid email or password")
	}

	raw, err := token.New(sessionTokenSize)
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "failed to generate session token", err)
	}

	expiresAt := time.Now().UTC().Add(s.cfg.GetSessionTTL())
	if _, err := s.repo.CreateSession(ctx, admin.ID, token.Hash(raw), expiresAt); err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "failed to create session", err)
	}

	if err := s.repo.DeleteExpiredSessions(ctx); err != nil {
		s.log.DatabaseError("prune expired sessions", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return LoginResult{Admin: admin, SessionToken: raw, ExpiresAt: expiresAt}, nil
}

// EnsureBootstrapAdmin upserts the admin account configured through the
// environment. A blank email or password skips the bootstrap entirely.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context) error {
	email := s.cfg.GetAdminBootstrapEmail()
	password := s.cfg.GetAdminBootstrapPassword()
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := s.repo.UpsertAdmin(ctx, email, "Admin", string(hash)); err != nil {
		return err
	}
	s.log.Info("bootstrap admin ensured", "email", email)
	return nil
}

// Authenticate resolves a raw session token from the cookie to the
// admin it belongs to.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (repository.AdminUser, error) {
	if rawToken == "" {
		return repository.AdminUser{}, apperr.Unauthorized("authentication required")
	}
	admin, err := s.repo.FindSessionAdmin(ctx, token.Hash(rawToken))
	if errors.Is(err, repository.ErrSessionExpired) {
		return repository.AdminUser{}, apperr.Unauthorized("session expired")
	}
	if err != nil {
		return repository.AdminUser{}, apperr.Wrap(apperr.KindInternal, "failed to resolve session", err)
	}
	return admin, nil
}

// Logout destroys the session behind the raw cookie token. Missing or
// already-deleted sessions are fine.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, token.Hash(rawToken)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete session", err)
	}
	return nil
}
