package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/domain/user"
	"github.com/sellora/storefront/internal/mail"
)

type mockUsers struct {
	byEmail map[string]*user.User
	byID    map[string]*user.User
	updates int
}

func (m *mockUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) Create(_ context.Context, u *user.User) error {
	if m.byEmail == nil {
		m.byEmail = map[string]*user.User{}
	}
	if m.byID == nil {
		m.byID = map[string]*user.User{}
	}
	if _, exists := m.byEmail[u.Email]; exists {
		return user.ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}

func (m *mockUsers) Update(_ context.Context, u *user.User) error {
	m.updates++
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}

func (m *mockUsers) List(_ context.Context, _, _ int) ([]*user.User, int64, error) {
	var out []*user.User
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUsers) Delete(_ context.Context, id string) error {
	u, ok := m.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	delete(m.byEmail, u.Email)
	delete(m.byID, id)
	return nil
}

type mockSessions struct {
	byHash      map[string]*Session
	deletedUser string
}

func (m *mockSessions) Create(_ context.Context, s *Session) error {
	if m.byHash == nil {
		m.byHash = map[string]*Session{}
	}
	m.byHash[s.TokenHash] = s
	return nil
}

func (m *mockSessions) GetByTokenHash(_ context.Context, hash string) (*Session, error) {
	s, ok := m.byHash[hash]
	if !ok {
		return nil, errors.New("no session")
	}
	return s, nil
}

func (m *mockSessions) DeleteByTokenHash(_ context.Context, hash string) error {
	delete(m.byHash, hash)
	return nil
}

func (m *mockSessions) DeleteByUser(_ context.Context, userID string) error {
	m.deletedUser = userID
	for hash, s := range m.byHash {
		if s.UserID == userID {
			delete(m.byHash, hash)
		}
	}
	return nil
}

type mockMailer struct {
	sent []mail.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestService(users *mockUsers, sessions *mockSessions, mailer *mockMailer) *Service {
	return NewService(users, sessions, mailer, "pepper", time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	u, token, err := svc.Signup(context.Background(), "Jane Doe", "jane@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.Equal(t, "jane-doe", u.Slug)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NotEmpty(t, token)

	ident, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, ident.UserID)

	_, _, err = svc.Login(context.Background(), "jane@example.com", "s3cret")
	require.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown email must look like a bad password")
}

func TestAuthenticate_RejectsExpiredSession(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	_, token, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "s3cret")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_RejectsSessionOlderThanPasswordChange(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	u, token, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "s3cret")
	require.NoError(t, err)

	changed := time.Now().Add(time.Minute)
	u.PasswordChangedAt = &changed

	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	_, token, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	mailer := &mockMailer{}
	svc := newTestService(users, sessions, mailer)

	u, token, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "jane@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.NotEmpty(t, u.ResetTokenHash)

	// The stored hash is not the code itself; recover the code from the mail
	// body instead.
	code := extractCode(t, mailer.sent[0].Body)

	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "jane@example.com", "newpass"), ErrResetNotVerified)
	assert.ErrorIs(t, svc.VerifyResetCode(context.Background(), "jane@example.com", "000000x"), ErrInvalidResetCode)

	require.NoError(t, svc.VerifyResetCode(context.Background(), "jane@example.com", code))
	require.NoError(t, svc.ResetPassword(context.Background(), "jane@example.com", "newpass"))

	// Old token is dead, old password no longer works, new one does.
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, u.ID, sessions.deletedUser)
	_, _, err = svc.Login(context.Background(), "jane@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "jane@example.com", "newpass")
	assert.NoError(t, err)
	assert.Empty(t, u.ResetTokenHash, "reset state cleared after use")
}

func TestForgotPassword_RollsBackOnMailFailure(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	u, _, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "s3cret")
	require.NoError(t, err)

	failing := &mockMailer{err: errors.New("smtp down")}
	svc.mailer = failing

	err = svc.ForgotPassword(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.Empty(t, u.ResetTokenHash, "code removed when the mail never went out")
	assert.Nil(t, u.ResetTokenExpiresAt)
}

func TestVerifyResetCode_Expired(t *testing.T) {
	users := &mockUsers{}
	mailer := &mockMailer{}
	svc := newTestService(users, &mockSessions{}, mailer)

	_, _, err := svc.Signup(context.Background(), "Jane", "jane@example.com", "s3cret")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "jane@example.com"))
	code := extractCode(t, mailer.sent[0].Body)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.ErrorIs(t, svc.VerifyResetCode(context.Background(), "jane@example.com", code), ErrInvalidResetCode)
}

// extractCode pulls the 6-digit code out of the reset mail body.
func extractCode(t *testing.T, body string) string {
	t.Helper()
	for i := 0; i+6 <= len(body); i++ {
		run := body[i : i+6]
		allDigits := true
		for _, c := range run {
			if c < '0' || c > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return run
		}
	}
	t.Fatal("no 6-digit code in mail body")
	return ""
}

func TestChangePassword(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	u, oldToken, err := svc.Signup(context.Background(), "Jane Doe", "jane@example.com", "old-pass")
	require.NoError(t, err)

	newToken, err := svc.ChangePassword(context.Background(), u.ID, "old-pass", "new-pass")
	require.NoError(t, err)

	// The old session is gone, the fresh one works.
	_, err = svc.Authenticate(context.Background(), oldToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	ident, err := svc.Authenticate(context.Background(), newToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, ident.UserID)

	// The old password no longer logs in, the new one does.
	_, _, err = svc.Login(context.Background(), "jane@example.com", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "jane@example.com", "new-pass")
	assert.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	u, token, err := svc.Signup(context.Background(), "Jane Doe", "jane@example.com", "old-pass")
	require.NoError(t, err)

	_, err = svc.ChangePassword(context.Background(), u.ID, "guess", "new-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), token)
	assert.NoError(t, err, "a failed attempt leaves the session alone")
}

func TestCreateUser_NoSessionIssued(t *testing.T) {
	users := &mockUsers{}
	sessions := &mockSessions{}
	svc := newTestService(users, sessions, &mockMailer{})

	u, err := svc.CreateUser(context.Background(), "Store Manager", "mgr@example.com", "s3cret", user.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, user.RoleManager, u.Role)
	assert.Equal(t, "store-manager", u.Slug)
	assert.Empty(t, sessions.byHash, "no session until the owner logs in")

	_, _, err = svc.Login(context.Background(), "mgr@example.com", "s3cret")
	assert.NoError(t, err)
}
