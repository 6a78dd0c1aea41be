package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/structura-erp/structura-erp/internal/shared"
)

type stubRepo struct {
	users  map[string]*User
	nextID int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[string]*User{}}
}

func (r *stubRepo) GetByUsername(_ context.Context, username string) (User, error) {
	u, ok := r.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *stubRepo) Create(_ context.Context, u User) (int64, error) {
	if _, exists := r.users[u.Username]; exists {
		return 0, ErrDuplicateUsername
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.Username] = &u
	return u.ID, nil
}

func newTestService() (*Service, *stubRepo) {
	repo := newStubRepo()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Username: "jdelacruz",
		FullName: "Juan dela Cruz",
		Password: "correct horse",
		Role:     shared.RoleApprover,
	})
	require.NoError(t, err)
	require.Equal(t, shared.RoleApprover, user.Role)
	require.NotEqual(t, "correct horse", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))

	got, err := svc.Authenticate(ctx, "jdelacruz", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticateFailures(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Username: "staff1", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "staff1", "wrong password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "password123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "", "")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Deactivated accounts cannot sign in.
	repo.users["staff1"].Active = false
	_, err = svc.Authenticate(ctx, "staff1", "password123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Username: "", Password: "password123"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateUser(ctx, CreateUserInput{Username: "u", Password: "short"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateUser(ctx, CreateUserInput{Username: "u", Password: "password123", Role: "superuser"})
	require.ErrorIs(t, err, shared.ErrValidation)

	// Default role is staff.
	user, err := svc.CreateUser(ctx, CreateUserInput{Username: "u", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, shared.RoleStaff, user.Role)

	_, err = svc.CreateUser(ctx, CreateUserInput{Username: "u", Password: "password123"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}
