package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/errors"
)

// Session represents a refresh token session. Only a hash of the refresh
// token is stored.
type Session struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	RefreshTokenHash string     `db:"refresh_token_hash"`
	UserAgent        *string    `db:"user_agent"`
	IPAddress        *string    `db:"ip_address"`
	ExpiresAt        time.Time  `db:"expires_at"`
	CreatedAt        time.Time  `db:"created_at"`
	LastUsedAt       time.Time  `db:"last_used_at"`
	RevokedAt        *time.Time `db:"revoked_at"`
}

// SessionRepository handles session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a session under the given id
func (r *SessionRepository) Create(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time, userAgent, ipAddress string) (*Session, error) {
	session := &Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: hashToken(refreshToken),
		UserAgent:        &userAgent,
		IPAddress:        &ipAddress,
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now(),
		LastUsedAt:       time.Now(),
	}

	query := `
		INSERT INTO sessions (id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.RefreshTokenHash,
		session.UserAgent, session.IPAddress,
		session.ExpiresAt, session.CreatedAt, session.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// GetByID gets an active session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*Session, error) {
	var session Session
	query := `
		SELECT * FROM sessions
		WHERE id = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("session")
		}
		return nil, err
	}
	return &session, nil
}

// RotateRefreshToken swaps the stored hash for the new refresh token
func (r *SessionRepository) RotateRefreshToken(ctx context.Context, id, newRefreshToken string) error {
	query := `UPDATE sessions SET refresh_token_hash = $1, last_used_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, hashToken(newRefreshToken), id)
	return err
}

// Revoke revokes a session
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// RevokeByRefreshToken revokes the session holding the given refresh token
func (r *SessionRepository) RevokeByRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE refresh_token_hash = $1`
	_, err := r.db.ExecContext(ctx, query, hashToken(refreshToken))
	return err
}

// CleanExpired removes expired and revoked sessions
func (r *SessionRepository) CleanExpired(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE expires_at < NOW() OR revoked_at IS NOT NULL`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// MatchesRefreshToken reports whether the session stores this refresh token
func (s *Session) MatchesRefreshToken(refreshToken string) bool {
	return s.RefreshTokenHash == hashToken(refreshToken)
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
