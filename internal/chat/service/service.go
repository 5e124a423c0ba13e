package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	chatdomain "webchat/internal/chat/domain"
	"webchat/internal/common/clock"
	commoncrypto "webchat/internal/common/crypto"
	apperrors "webchat/internal/common/errors"
	"webchat/internal/common/logger"
	"webchat/internal/observability/metrics"
	"webchat/internal/storage"
	userdomain "webchat/internal/user/domain"
)

// timestampLayout renders server timestamps the way the chat page shows
// them, pinned to one locale and timezone regardless of host settings.
const timestampLayout = "1/2/2006, 3:04:05 PM"

var timestampZone = loadTimestampZone()

func loadTimestampZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Store is the slice of the storage backend the chat service needs.
type Store interface {
	FindUserByUsername(ctx context.Context, username string) (userdomain.User, error)
	FindAllUsers(ctx context.Context) ([]userdomain.User, error)
	DeleteUserByUsername(ctx context.Context, username string) (int64, error)
	SaveMessage(ctx context.Context, msg chatdomain.Message) (chatdomain.Message, error)
	FindAllMessages(ctx context.Context) ([]chatdomain.Message, error)
	DeleteMessagesByAuthor(ctx context.Context, username string) (int64, error)
}

// ChatService validates and persists chat messages and handles user
// administration for the chat room.
type ChatService struct {
	store Store
	ids   commoncrypto.IDGenerator
	clock clock.Clock
	log   *logger.Logger
}

func NewChatService(store Store, ids commoncrypto.IDGenerator, clk clock.Clock, log *logger.Logger) *ChatService {
	return &ChatService{
		store: store,
		ids:   ids,
		clock: clk,
		log:   log,
	}
}

// Post persists a new message. Only the authenticated identity may author a
// message attributed to itself, and the author must be a registered user;
// both checks run before anything is written.
func (s *ChatService) Post(ctx context.Context, author, text, authorizedUser string) (chatdomain.Message, error) {
	user, err := s.store.FindUserByUsername(ctx, author)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.log.WithFields(logger.Fields{
				"author": author,
				"action": "post_orphaned_rejected",
			}).Warn("post rejected: author not registered")
			return chatdomain.Message{}, apperrors.Client(
				"UserNotFound",
				http.StatusUnauthorized,
				"User %s does not exist. Orphaned messages are not allowed.",
				author,
			)
		}
		return chatdomain.Message{}, dbError("Message could not be posted.", err)
	}

	if authorizedUser != author {
		s.log.WithFields(logger.Fields{
			"author":          author,
			"authorized_user": authorizedUser,
			"action":          "post_unauthorized",
		}).Warn("post rejected: author mismatch")
		return chatdomain.Message{}, apperrors.Client(
			"UnauthorizedRequest",
			http.StatusUnauthorized,
			"You are not authorized to post this message. Posting a chat on behalf of another user is not allowed.",
		)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return chatdomain.Message{}, dbError("Message could not be posted.", err)
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Username
	}

	msg := chatdomain.Message{
		ID:          id,
		Author:      author,
		Text:        text,
		DisplayName: displayName,
		Timestamp:   s.clock.Now().In(timestampZone).Format(timestampLayout),
	}

	saved, err := s.store.SaveMessage(ctx, msg)
	if err != nil {
		return chatdomain.Message{}, dbError("Message could not be posted.", err)
	}

	s.log.WithFields(logger.Fields{
		"author":     saved.Author,
		"message_id": saved.ID,
		"action":     "post_success",
	}).Info("message posted")
	metrics.MessagesPostedTotal.Inc()

	return saved, nil
}

// ListAll returns every message in storage insertion order.
func (s *ChatService) ListAll(ctx context.Context) ([]chatdomain.Message, error) {
	messages, err := s.store.FindAllMessages(ctx)
	if err != nil {
		return nil, dbError("Messages could not be retrieved.", err)
	}
	if messages == nil {
		messages = []chatdomain.Message{}
	}
	return messages, nil
}

// ListUsernames returns the usernames of every registered account.
func (s *ChatService) ListUsernames(ctx context.Context) ([]string, error) {
	users, err := s.store.FindAllUsers(ctx)
	if err != nil {
		return nil, dbError("Users could not be retrieved.", err)
	}

	usernames := make([]string, 0, len(users))
	for _, u := range users {
		usernames = append(usernames, u.Username)
	}
	return usernames, nil
}

// GetUser fetches one account by username.
func (s *ChatService) GetUser(ctx context.Context, username string) (userdomain.User, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return userdomain.User{}, apperrors.Client(
				"UserNotFound",
				http.StatusBadRequest,
				"User %s does not exist.",
				username,
			)
		}
		return userdomain.User{}, dbError("User could not be retrieved.", err)
	}
	return user, nil
}

// DeleteUserAndMessages removes the account and every message it authored,
// returning the removed account and the number of messages deleted.
func (s *ChatService) DeleteUserAndMessages(ctx context.Context, username string) (userdomain.User, int64, error) {
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return userdomain.User{}, 0, apperrors.Client(
				"UserNotFound",
				http.StatusBadRequest,
				"User %s does not exist.",
				username,
			)
		}
		return userdomain.User{}, 0, deleteError(username, err)
	}

	deletedMessages, err := s.store.DeleteMessagesByAuthor(ctx, username)
	if err != nil {
		return userdomain.User{}, 0, deleteError(username, err)
	}

	if _, err := s.store.DeleteUserByUsername(ctx, username); err != nil {
		return userdomain.User{}, 0, deleteError(username, err)
	}

	s.log.WithFields(logger.Fields{
		"username":         username,
		"deleted_messages": deletedMessages,
		"action":           "user_deleted",
	}).Info("user and messages deleted")

	return user, deletedMessages, nil
}

func dbError(message string, cause error) *apperrors.AppError {
	return apperrors.Server("DBError", "%s", message).WithCause(cause)
}

func deleteError(username string, cause error) *apperrors.AppError {
	return apperrors.Server(
		"DBError",
		"User %s and their messages could not be deleted.",
		username,
	).WithCause(cause)
}
