package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/auth"
)

const (
	createSessionSQL = `INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	getSessionByHashSQL = `SELECT id, user_id, token_hash, expires_at, created_at
		FROM sessions WHERE token_hash = $1`

	deleteSessionByHashSQL = `DELETE FROM sessions WHERE token_hash = $1`
	deleteSessionsUserSQL  = `DELETE FROM sessions WHERE user_id = $1`
)

var _ auth.SessionStore = (*SessionStore)(nil)

// SessionStore implements auth.SessionStore backed by PostgreSQL.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a SessionStore that uses the given pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, sess *auth.Session) error {
	_, err := s.pool.Exec(ctx, createSessionSQL,
		sess.ID, sess.UserID, sess.TokenHash, sess.ExpiresAt, sess.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating session %q", sess.ID)
	}
	return nil
}

// GetByTokenHash resolves a token hash to its session.
func (s *SessionStore) GetByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	rows, err := s.pool.Query(ctx, getSessionByHashSQL, hash)
	if err != nil {
		return nil, errors.Wrap(err, "getting session")
	}

	sess, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[auth.Session])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("session not found")
		}
		return nil, errors.Wrap(err, "getting session")
	}
	return &sess, nil
}

// DeleteByTokenHash removes the session behind one token.
func (s *SessionStore) DeleteByTokenHash(ctx context.Context, hash string) error {
	if _, err := s.pool.Exec(ctx, deleteSessionByHashSQL, hash); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return nil
}

// DeleteByUser removes every session the user holds.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, deleteSessionsUserSQL, userID); err != nil {
		return errors.Wrapf(err, "deleting sessions for user %q", userID)
	}
	return nil
}
