package http

import (
	"net/http"

	apperrors "webchat/internal/common/errors"
	commonhttp "webchat/internal/common/http"
	"webchat/internal/common/logger"
	"webchat/internal/history/service"
)

type addNoteRequest struct {
	Description string `json:"description"`
	Date        string `json:"date"`
}

type Handler struct {
	history *service.HistoryService
	log     *logger.Logger
}

func NewHandler(history *service.HistoryService, log *logger.Logger) http.Handler {
	h := &Handler{
		history: history,
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/history/notes", h.notes)
	return mux
}

func (h *Handler) notes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listNotes(w, r)
	case http.MethodPost:
		h.addNote(w, r)
	default:
		commonhttp.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"type":    string(apperrors.ClientError),
			"name":    "MethodNotAllowed",
			"message": "method not allowed",
		})
	}
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("add note failed: invalid json: %v", err)
	}

	if req.Description == "" || req.Date == "" {
		message := "Request body for a new note must contain a date"
		if req.Description == "" {
			message = "Request body for a new note must contain a description"
		}
		commonhttp.WriteAppError(w, apperrors.Client(
			"MissingNoteInfo",
			http.StatusBadRequest,
			"%s",
			message,
		))
		return
	}

	note, err := h.history.Add(r.Context(), req.Description, req.Date)
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusCreated, commonhttp.Success{
		Name:    "NoteCreated",
		Payload: note,
	})
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.history.List(r.Context())
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	name := "NotesFound"
	if len(notes) == 0 {
		name = "NoNotesFound"
	}
	commonhttp.WriteSuccess(w, http.StatusOK, commonhttp.Success{
		Name:    name,
		Payload: notes,
	})
}
