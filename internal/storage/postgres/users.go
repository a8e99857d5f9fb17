package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellora/storefront/internal/domain/user"
)

// Credential and reset fields live in real columns: the doc column holds the
// client-visible account shape and its JSON encoding drops everything tagged
// with "-".
const (
	userColumns = `id, email, password_hash, doc, password_changed_at,
		reset_token_hash, reset_expires_at, reset_verified, created_at, updated_at`

	getUserByIDSQL    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	listUsersSQL = `SELECT ` + userColumns + ` FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	countUsersSQL = `SELECT count(*) FROM users`

	deleteUserSQL = `DELETE FROM users WHERE id = $1`

	createUserSQL = `INSERT INTO users (id, email, password_hash, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`

	updateUserSQL = `UPDATE users
		SET email = $2, password_hash = $3, doc = $4, password_changed_at = $5,
		    reset_token_hash = $6, reset_expires_at = $7, reset_verified = $8,
		    updated_at = now()
		WHERE id = $1`
)

var _ user.Repository = (*UserStore)(nil)

// UserStore implements user.Repository backed by PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a UserStore that uses the given pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// GetByID returns an account by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.get(ctx, getUserByIDSQL, id)
}

// GetByEmail returns an account by its unique email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.get(ctx, getUserByEmailSQL, email)
}

func (s *UserStore) get(ctx context.Context, sql, arg string) (*user.User, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, errors.Wrap(err, "getting user")
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting user")
	}
	return u, nil
}

// List returns one page of accounts, newest first, plus the total count.
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	rows, err := s.pool.Query(ctx, listUsersSQL, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing users")
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing users")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, countUsersSQL).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}
	return users, total, nil
}

// Create inserts a new account, mapping the unique email constraint to
// user.ErrEmailTaken.
func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "encoding user doc")
	}
	if _, err := s.pool.Exec(ctx, createUserSQL, u.ID, u.Email, u.PasswordHash, doc, u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return errors.Wrapf(err, "creating user %q", u.ID)
	}
	return nil
}

// Update rewrites the account row from the domain object.
func (s *UserStore) Update(ctx context.Context, u *user.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "encoding user doc")
	}
	tag, err := s.pool.Exec(ctx, updateUserSQL,
		u.ID, u.Email, u.PasswordHash, doc,
		u.PasswordChangedAt, u.ResetTokenHash, u.ResetTokenExpiresAt, u.ResetVerified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return errors.Wrapf(err, "updating user %q", u.ID)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes an account. Sessions go with it via the foreign key.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return errors.Wrapf(err, "deleting user %q", id)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// scanUser decodes the doc first so the real columns win over any stale
// values the doc carries.
func scanUser(row pgx.CollectableRow) (*user.User, error) {
	var (
		u                user.User
		id, email, hash  string
		docRaw           []byte
		changedAt        *time.Time
		resetHash        string
		resetExpires     *time.Time
		resetVerified    bool
		created, updated time.Time
	)
	err := row.Scan(
		&id, &email, &hash, &docRaw, &changedAt,
		&resetHash, &resetExpires, &resetVerified,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docRaw, &u); err != nil {
		return nil, errors.Wrap(err, "decoding user doc")
	}

	u.ID = id
	u.Email = email
	u.PasswordHash = hash
	u.PasswordChangedAt = changedAt
	u.ResetTokenHash = resetHash
	u.ResetTokenExpiresAt = resetExpires
	u.ResetVerified = resetVerified
	u.CreatedAt = created
	u.UpdatedAt = updated
	return &u, nil
}
