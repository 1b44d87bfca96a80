package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	byEmail map[string]*User
	byID    map[uuid.UUID]*User
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]*User), byID: make(map[uuid.UUID]*User)}
}

func (m *memStore) Create(ctx context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	return nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func newTestService() *Service {
	return NewService(newMemStore(), NewTokenIssuer("test-secret"))
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, token, err := svc.Signup(ctx, SignupRequest{Name: "Chris", Email: "Chris@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "chris@example.com", u.Email, "emails are normalized")
	assert.Equal(t, "Chris", u.DisplayName, "display name falls back to name")
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, loginToken, err := svc.Login(ctx, "chris@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, loginToken)

	id, err := svc.VerifyToken(loginToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), id)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupRequest{Email: "a@b.c", Password: "long enough"})
	require.ErrorIs(t, err, ErrInvalid)

	_, _, err = svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@b.c", Password: "short"})
	require.ErrorIs(t, err, ErrInvalid, "short passwords are rejected")
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@b.c", Password: "long enough"})
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, SignupRequest{Name: "B", Email: "A@B.C", Password: "long enough"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@b.c", Password: "long enough"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@b.c", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@b.c", "long enough")
	require.ErrorIs(t, err, ErrInvalidCredentials, "unknown email gets the same error as a bad password")
}

func TestVerifyTokenRejectsForgery(t *testing.T) {
	issuer := NewTokenIssuer("secret-a")
	other := NewTokenIssuer("secret-b")

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)

	_, err = issuer.Verify("not.a.token")
	require.Error(t, err)
}
