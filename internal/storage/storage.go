package storage

import (
	"context"
	"errors"

	chatdomain "webchat/internal/chat/domain"
	historydomain "webchat/internal/history/domain"
	userdomain "webchat/internal/user/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("username already registered")
	ErrMessageNotFound = errors.New("message not found")
)

// Store is the pluggable persistence backend. Two interchangeable
// implementations exist: the volatile in-memory store used in early
// development, and the durable Postgres document store. The backend is
// chosen once at startup and injected; nothing downstream branches on it.
type Store interface {
	// Reset clears all stored data. Used at startup outside production.
	Reset(ctx context.Context) error
	Close()

	SaveUser(ctx context.Context, user userdomain.User) (userdomain.User, error)
	FindUserByUsername(ctx context.Context, username string) (userdomain.User, error)
	FindAllUsers(ctx context.Context) ([]userdomain.User, error)
	DeleteUserByUsername(ctx context.Context, username string) (int64, error)

	SaveMessage(ctx context.Context, msg chatdomain.Message) (chatdomain.Message, error)
	FindMessageByID(ctx context.Context, id string) (chatdomain.Message, error)
	FindAllMessages(ctx context.Context) ([]chatdomain.Message, error)
	DeleteMessagesByAuthor(ctx context.Context, username string) (int64, error)

	SaveNote(ctx context.Context, note historydomain.Note) (historydomain.Note, error)
	FindAllNotes(ctx context.Context) ([]historydomain.Note, error)
}
