package memory

import (
	"context"
	"sync"

	chatdomain "webchat/internal/chat/domain"
	historydomain "webchat/internal/history/domain"
	"webchat/internal/storage"
	userdomain "webchat/internal/user/domain"
)

// Store is the volatile backend for early-stage development and tests.
// Uniqueness of usernames is checked here but is best-effort only; the
// Postgres backend enforces it at the schema level.
type Store struct {
	mu       sync.RWMutex
	users    map[string]userdomain.User
	messages []chatdomain.Message
	notes    []historydomain.Note
}

func New() *Store {
	return &Store{
		users: make(map[string]userdomain.User),
	}
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]userdomain.User)
	s.messages = nil
	s.notes = nil
	return nil
}

func (s *Store) Close() {}

func (s *Store) SaveUser(ctx context.Context, user userdomain.User) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return userdomain.User{}, storage.ErrUserExists
	}
	s.users[user.Username] = user
	return user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (userdomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return userdomain.User{}, storage.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) FindAllUsers(ctx context.Context) ([]userdomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]userdomain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) DeleteUserByUsername(ctx context.Context, username string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return 0, nil
	}
	delete(s.users, username)
	return 1, nil
}

func (s *Store) SaveMessage(ctx context.Context, msg chatdomain.Message) (chatdomain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *Store) FindMessageByID(ctx context.Context, id string) (chatdomain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return chatdomain.Message{}, storage.ErrMessageNotFound
}

func (s *Store) FindAllMessages(ctx context.Context) ([]chatdomain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]chatdomain.Message, len(s.messages))
	copy(messages, s.messages)
	return messages, nil
}

func (s *Store) DeleteMessagesByAuthor(ctx context.Context, username string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []chatdomain.Message
	var deleted int64
	for _, m := range s.messages {
		if m.Author == username {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return deleted, nil
}

func (s *Store) SaveNote(ctx context.Context, note historydomain.Note) (historydomain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = append(s.notes, note)
	return note, nil
}

func (s *Store) FindAllNotes(ctx context.Context) ([]historydomain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := make([]historydomain.Note, len(s.notes))
	copy(notes, s.notes)
	return notes, nil
}
