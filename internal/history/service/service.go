package service

import (
	"context"

	commoncrypto "webchat/internal/common/crypto"
	apperrors "webchat/internal/common/errors"
	"webchat/internal/common/logger"
	historydomain "webchat/internal/history/domain"
)

// Store is the slice of the storage backend the history service needs.
type Store interface {
	SaveNote(ctx context.Context, note historydomain.Note) (historydomain.Note, error)
	FindAllNotes(ctx context.Context) ([]historydomain.Note, error)
}

// HistoryService records and lists project history notes.
type HistoryService struct {
	store Store
	ids   commoncrypto.IDGenerator
	log   *logger.Logger
}

func NewHistoryService(store Store, ids commoncrypto.IDGenerator, log *logger.Logger) *HistoryService {
	return &HistoryService{
		store: store,
		ids:   ids,
		log:   log,
	}
}

func (s *HistoryService) Add(ctx context.Context, description, date string) (historydomain.Note, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return historydomain.Note{}, apperrors.Server("DBError", "Error saving the note").WithCause(err)
	}

	note, err := s.store.SaveNote(ctx, historydomain.Note{
		ID:          id,
		Description: description,
		Date:        date,
	})
	if err != nil {
		return historydomain.Note{}, apperrors.Server("DBError", "Error saving the note").WithCause(err)
	}

	s.log.WithFields(logger.Fields{
		"note_id": note.ID,
		"action":  "note_created",
	}).Info("history note saved")

	return note, nil
}

func (s *HistoryService) List(ctx context.Context) ([]historydomain.Note, error) {
	notes, err := s.store.FindAllNotes(ctx)
	if err != nil {
		return nil, apperrors.Server("DBError", "Error retrieving notes").WithCause(err)
	}
	if notes == nil {
		notes = []historydomain.Note{}
	}
	return notes, nil
}
