// Package repository provides persistence for admin users and their
// server-side sessions.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("admin user not found")
	ErrSessionExpired = errors.New("session expired or not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type AdminUser struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

func (r *Repository) FindAdminByEmail(ctx context.Context, email string) (AdminUser, error) {
	var admin AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM admin_users
		WHERE email = $1`, email).
		Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, ErrNotFound
	}
	return admin, err
}

func (r *Repository) FindAdminByID(ctx context.Context, id uuid.UUID) (AdminUser, error) {
	var admin AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM admin_users
		WHERE id = $1`, id).
		Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, ErrNotFound
	}
	return admin, err
}

// UpsertAdmin creates the admin account or refreshes its password hash
// when the email already exists. Used by the bootstrap path on startup.
func (r *Repository) UpsertAdmin(ctx context.Context, email, name, passwordHash string) (AdminUser, error) {
	var admin AdminUser
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admin_users (email, name, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
		RETURNING id, email, name, password_hash, created_at`,
		email, name, passwordHash).
		Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	return admin, err
}

type Session struct {
	ID        uuid.UUID
	AdminID   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r *Repository) CreateSession(ctx context.Context, adminID uuid.UUID, tokenHash string, expiresAt time.Time) (Session, error) {
	var session Session
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (admin_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, admin_id, token_hash, expires_at, created_at`,
		adminID, tokenHash, expiresAt).
		Scan(&session.ID, &session.AdminID, &session.TokenHash, &session.ExpiresAt, &session.CreatedAt)
	return session, err
}

// FindSessionAdmin resolves a session token hash to its admin, rejecting
// expired sessions.
func (r *Repository) FindSessionAdmin(ctx context.Context, tokenHash string) (AdminUser, error) {
	var admin AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.email, a.name, a.password_hash, a.created_at
		FROM sessions s
		JOIN admin_users a ON a.id = s.admin_id
		WHERE s.token_hash = $1 AND s.expires_at > now()`, tokenHash).
		Scan(&admin.ID, &admin.Email, &admin.Name, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AdminUser{}, ErrSessionExpired
	}
	return admin, err
}

func (r *Repository) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteExpiredSessions prunes dead sessions; called opportunistically
// on login.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	return err
}
