package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	chatdomain "webchat/internal/chat/domain"
	"webchat/internal/common/logger"
	historydomain "webchat/internal/history/domain"
	"webchat/internal/storage"
	userdomain "webchat/internal/user/domain"
)

const uniqueViolationCode = "23505"

// Store is the durable document-store backend. Each record is kept as a
// jsonb document with its lookup keys extracted into indexed columns; the
// unique index on username closes the concurrent-registration race the
// in-memory backend tolerates.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func Connect(ctx context.Context, log *logger.Logger, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	cfg.MaxConns = 25
	cfg.MinConns = 5
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second
	cfg.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "webchat",
	}

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{pool: pool, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Infof("database connection pool initialized: max=%d, min=%d", cfg.MaxConns, cfg.MinConns)
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username text PRIMARY KEY,
			doc jsonb NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id text PRIMARY KEY,
			author text NOT NULL,
			seq bigserial,
			doc jsonb NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_author_idx ON messages (author)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id text PRIMARY KEY,
			seq bigserial,
			doc jsonb NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"users", "messages", "notes"} {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) SaveUser(ctx context.Context, user userdomain.User) (userdomain.User, error) {
	doc, err := json.Marshal(user)
	if err != nil {
		return userdomain.User{}, fmt.Errorf("failed to marshal user: %w", err)
	}

	_, err = s.pool.Exec(
		ctx,
		`INSERT INTO users (username, doc) VALUES ($1, $2)`,
		user.Username,
		doc,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return userdomain.User{}, storage.ErrUserExists
		}
		return userdomain.User{}, fmt.Errorf("failed to save user: %w", err)
	}
	return user, nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (userdomain.User, error) {
	var doc []byte
	err := s.pool.QueryRow(
		ctx,
		`SELECT doc FROM users WHERE username = $1`,
		username,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return userdomain.User{}, storage.ErrUserNotFound
		}
		return userdomain.User{}, fmt.Errorf("failed to find user by username: %w", err)
	}

	var user userdomain.User
	if err := json.Unmarshal(doc, &user); err != nil {
		return userdomain.User{}, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return user, nil
}

func (s *Store) FindAllUsers(ctx context.Context) ([]userdomain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer rows.Close()

	var users []userdomain.User
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		var user userdomain.User
		if err := json.Unmarshal(doc, &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		users = append(users, user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}
	return users, nil
}

func (s *Store) DeleteUserByUsername(ctx context.Context, username string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) SaveMessage(ctx context.Context, msg chatdomain.Message) (chatdomain.Message, error) {
	doc, err := json.Marshal(msg)
	if err != nil {
		return chatdomain.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = s.pool.Exec(
		ctx,
		`INSERT INTO messages (id, author, doc) VALUES ($1, $2, $3)`,
		msg.ID,
		msg.Author,
		doc,
	)
	if err != nil {
		return chatdomain.Message{}, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

func (s *Store) FindMessageByID(ctx context.Context, id string) (chatdomain.Message, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM messages WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chatdomain.Message{}, storage.ErrMessageNotFound
		}
		return chatdomain.Message{}, fmt.Errorf("failed to find message by id: %w", err)
	}

	var msg chatdomain.Message
	if err := json.Unmarshal(doc, &msg); err != nil {
		return chatdomain.Message{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, nil
}

func (s *Store) FindAllMessages(ctx context.Context) ([]chatdomain.Message, error) {
	// seq preserves insertion order across restarts.
	rows, err := s.pool.Query(ctx, `SELECT doc FROM messages ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer rows.Close()

	var messages []chatdomain.Message
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		var msg chatdomain.Message
		if err := json.Unmarshal(doc, &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}
	return messages, nil
}

func (s *Store) DeleteMessagesByAuthor(ctx context.Context, username string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE author = $1`, username)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages by author: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) SaveNote(ctx context.Context, note historydomain.Note) (historydomain.Note, error) {
	doc, err := json.Marshal(note)
	if err != nil {
		return historydomain.Note{}, fmt.Errorf("failed to marshal note: %w", err)
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO notes (id, doc) VALUES ($1, $2)`, note.ID, doc)
	if err != nil {
		return historydomain.Note{}, fmt.Errorf("failed to save note: %w", err)
	}
	return note, nil
}

func (s *Store) FindAllNotes(ctx context.Context) ([]historydomain.Note, error) {
	rows, err := s.pool.Query(ctx, `SELECT doc FROM notes ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find notes: %w", err)
	}
	defer rows.Close()

	var notes []historydomain.Note
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		var note historydomain.Note
		if err := json.Unmarshal(doc, &note); err != nil {
			return nil, fmt.Errorf("failed to unmarshal note: %w", err)
		}
		notes = append(notes, note)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}
	return notes, nil
}
