package service

import (
	"context"
	"errors"
	"testing"

	apperrors "webchat/internal/common/errors"
	"webchat/internal/common/logger"
	"webchat/internal/storage"
	userdomain "webchat/internal/user/domain"
)

type mockUserStore struct {
	saveUserFunc           func(ctx context.Context, user userdomain.User) (userdomain.User, error)
	findUserByUsernameFunc func(ctx context.Context, username string) (userdomain.User, error)
}

func (m *mockUserStore) SaveUser(ctx context.Context, user userdomain.User) (userdomain.User, error) {
	return m.saveUserFunc(ctx, user)
}

func (m *mockUserStore) FindUserByUsername(ctx context.Context, username string) (userdomain.User, error) {
	return m.findUserByUsernameFunc(ctx, username)
}

type fakeHasher struct{}

func (h *fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeIDGenerator struct {
	id string
}

func (g *fakeIDGenerator) NewID() (string, error) {
	return g.id, nil
}

func newIdentityService(store *mockUserStore) *IdentityService {
	log, _ := logger.New("", "test", "info")
	return NewIdentityService(store, &fakeHasher{}, &fakeIDGenerator{id: "id-1"}, log)
}

func userNotFoundStore() *mockUserStore {
	return &mockUserStore{
		findUserByUsernameFunc: func(ctx context.Context, username string) (userdomain.User, error) {
			return userdomain.User{}, storage.ErrUserNotFound
		},
		saveUserFunc: func(ctx context.Context, user userdomain.User) (userdomain.User, error) {
			return user, nil
		},
	}
}

func TestIdentityService_Register_Success(t *testing.T) {
	svc := newIdentityService(userNotFoundStore())

	user, err := svc.Register(context.Background(), "alice", "abc1$", "Alice")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "id-1" {
		t.Errorf("expected generated id, got %q", user.ID)
	}
	if user.Username != "alice" {
		t.Errorf("expected username alice, got %q", user.Username)
	}
	if user.PasswordHash != "hashed:abc1$" {
		t.Errorf("expected password hashed before save, got %q", user.PasswordHash)
	}
	if user.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %q", user.DisplayName)
	}
}

func TestIdentityService_Register_UserExists(t *testing.T) {
	store := userNotFoundStore()
	store.findUserByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{Username: username}, nil
	}
	svc := newIdentityService(store)

	_, err := svc.Register(context.Background(), "alice", "abc1$", "Alice")

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Name != "UserExists" {
		t.Errorf("expected UserExists, got %s", appErr.Name)
	}
	if appErr.HTTPStatus() != 400 {
		t.Errorf("expected status 400, got %d", appErr.HTTPStatus())
	}
}

func TestIdentityService_Register_WeakPassword(t *testing.T) {
	saved := false
	store := userNotFoundStore()
	store.saveUserFunc = func(ctx context.Context, user userdomain.User) (userdomain.User, error) {
		saved = true
		return user, nil
	}
	svc := newIdentityService(store)

	_, err := svc.Register(context.Background(), "alice", "password", "Alice")

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Name != "WeakPassword" {
		t.Errorf("expected WeakPassword, got %s", appErr.Name)
	}
	if saved {
		t.Error("weak password must not reach the store")
	}
}

func TestIdentityService_Register_LostRace(t *testing.T) {
	store := userNotFoundStore()
	store.saveUserFunc = func(ctx context.Context, user userdomain.User) (userdomain.User, error) {
		return userdomain.User{}, storage.ErrUserExists
	}
	svc := newIdentityService(store)

	_, err := svc.Register(context.Background(), "alice", "abc1$", "Alice")

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Name != "UserExists" {
		t.Errorf("expected UserExists after save conflict, got %s", appErr.Name)
	}
}

func TestIdentityService_Authenticate_Success(t *testing.T) {
	store := userNotFoundStore()
	store.findUserByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{
			ID:           "id-1",
			Username:     username,
			PasswordHash: "hashed:abc1$",
			DisplayName:  "Alice",
		}, nil
	}
	svc := newIdentityService(store)

	user, err := svc.Authenticate(context.Background(), "alice", "abc1$")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected username alice, got %q", user.Username)
	}
}

func TestIdentityService_Authenticate_UserNotFound(t *testing.T) {
	svc := newIdentityService(userNotFoundStore())

	_, err := svc.Authenticate(context.Background(), "ghost", "abc1$")

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Name != "UserNotFound" {
		t.Errorf("expected UserNotFound, got %s", appErr.Name)
	}
	if appErr.HTTPStatus() != 400 {
		t.Errorf("expected status 400, got %d", appErr.HTTPStatus())
	}
}

func TestIdentityService_Authenticate_IncorrectPassword(t *testing.T) {
	store := userNotFoundStore()
	store.findUserByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{Username: username, PasswordHash: "hashed:other"}, nil
	}
	svc := newIdentityService(store)

	_, err := svc.Authenticate(context.Background(), "alice", "abc1$")

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Name != "IncorrectPassword" {
		t.Errorf("expected IncorrectPassword, got %s", appErr.Name)
	}
}

func TestIdentityService_Register_StoreLookupError(t *testing.T) {
	store := userNotFoundStore()
	store.findUserByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{}, errors.New("connection refused")
	}
	svc := newIdentityService(store)

	_, err := svc.Register(context.Background(), "alice", "abc1$", "Alice")

	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Name != "DBError" {
		t.Errorf("expected DBError, got %s", appErr.Name)
	}
	if appErr.Type != apperrors.ServerError {
		t.Errorf("expected ServerError type, got %s", appErr.Type)
	}
}
