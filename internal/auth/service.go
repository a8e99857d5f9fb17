package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/mail"
)

// Service implements signup, login, token resolution, and password reset.
type Service struct {
	users    user.Repository
	sessions SessionStore
	mailer   mail.Mailer
	pepper   string
	tokenTTL time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

// NewService creates an auth Service. The pepper is appended to every
// password before hashing so a dumped users table alone is not crackable
// offline without the server config.
func NewService(users user.Repository, sessions SessionStore, mailer mail.Mailer, pepper string, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		mailer:   mailer,
		pepper:   pepper,
		tokenTTL: tokenTTL,
		resetTTL: 10 * time.Minute,
		now:      time.Now,
	}
}

// Signup registers a new account and logs it in, returning the account and a
// bearer token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*user.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+s.pepper), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	now := s.now()
	u := &user.User{
		ID:           uuid.New().String(),
		Name:         name,
		Slug:         slug.Make(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         user.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CreateUser registers an account on someone's behalf with an assigned role.
// No session is issued; the new owner logs in with the handed-over password.
func (s *Service) CreateUser(ctx context.Context, name, email, password, role string) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+s.pepper), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	now := s.now()
	u := &user.User{
		ID:           uuid.New().String(),
		Name:         name,
		Slug:         slug.Make(name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the caller's password after verifying the current
// one. Every existing session dies with the old password; the returned token
// backs a fresh session so the caller stays logged in.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current+s.pepper)) != nil {
		return "", ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword+s.pepper), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	now := s.now()
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		return "", err
	}
	if err := s.sessions.DeleteByUser(ctx, u.ID); err != nil {
		return "", err
	}
	return s.issueToken(ctx, u.ID)
}

// Login verifies the credentials and returns the account with a fresh bearer
// token.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password+s.pepper)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Logout drops the session behind the given token. Unknown tokens are a
// no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteByTokenHash(ctx, hashToken(token))
}

// Authenticate resolves a bearer token to the caller's identity. Sessions
// issued before the account's last password change are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (user.Identity, error) {
	sess, err := s.sessions.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		return user.Identity{}, ErrInvalidToken
	}
	if !sess.ExpiresAt.After(s.now()) {
		return user.Identity{}, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil || !u.Active {
		return user.Identity{}, ErrInvalidToken
	}
	if u.PasswordChangedAt != nil && u.PasswordChangedAt.After(sess.CreatedAt) {
		return user.Identity{}, ErrInvalidToken
	}
	return user.Identity{UserID: u.ID, Role: u.Role}, nil
}

// ForgotPassword stores a hashed 6-digit reset code on the account and mails
// the code. When the mail cannot be sent the code is removed again so the
// account is not left with a live code nobody received.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, hash, err := newResetCode()
	if err != nil {
		return err
	}
	expires := s.now().Add(s.resetTTL)
	u.ResetTokenHash = hash
	u.ResetTokenExpiresAt = &expires
	u.ResetVerified = false
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	msg := mail.Message{
		To:      u.Email,
		Subject: "Your password reset code",
		Body:    fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires in %d minutes.", u.Name, code, int(s.resetTTL.Minutes())),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		u.ResetTokenHash = ""
		u.ResetTokenExpiresAt = nil
		u.ResetVerified = false
		if rbErr := s.users.Update(ctx, u); rbErr != nil {
			return errors.Wrap(rbErr, "roll back reset code")
		}
		return errors.Wrap(err, "send reset mail")
	}
	return nil
}

// VerifyResetCode checks the emailed code and marks the account as cleared
// for a password reset.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.ResetTokenHash == "" || u.ResetTokenHash != hashToken(code) {
		return ErrInvalidResetCode
	}
	if u.ResetTokenExpiresAt == nil || !u.ResetTokenExpiresAt.After(s.now()) {
		return ErrInvalidResetCode
	}

	u.ResetVerified = true
	return s.users.Update(ctx, u)
}

// ResetPassword replaces the password after a verified reset and invalidates
// every existing session for the account.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.ResetVerified {
		return ErrResetNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword+s.pepper), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	now := s.now()
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &now
	u.ResetTokenHash = ""
	u.ResetTokenExpiresAt = nil
	u.ResetVerified = false
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	return s.sessions.DeleteByUser(ctx, u.ID)
}

func (s *Service) issueToken(ctx context.Context, userID string) (string, error) {
	token, hash, err := newToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", errors.Wrap(err, "store session")
	}
	return token, nil
}
