package http

import (
	"fmt"
	"net/http"
	"strings"

	"webchat/internal/chat/service"
	"webchat/internal/chat/ws"
	apperrors "webchat/internal/common/errors"
	commonhttp "webchat/internal/common/http"
	"webchat/internal/common/jwtverify"
	"webchat/internal/common/logger"
)

type postMessageRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

type Handler struct {
	chat *service.ChatService
	hub  *ws.Hub
	log  *logger.Logger
}

// NewHandler mounts the chat room routes. Every route here sits behind
// the authorization gate; handlers can rely on an authorized user being
// present in the request context.
func NewHandler(chat *service.ChatService, hub *ws.Hub, log *logger.Logger) http.Handler {
	h := &Handler{
		chat: chat,
		hub:  hub,
		log:  log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat/messages", h.messages)
	mux.HandleFunc("/chat/users", commonhttp.RequireMethod(http.MethodGet)(h.listUsernames))
	mux.HandleFunc("/chat/usernames", commonhttp.RequireMethod(http.MethodGet)(h.listUsernames))
	mux.HandleFunc("/chat/users/", h.userByName)
	return mux
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMessages(w, r)
	case http.MethodPost:
		h.postMessage(w, r)
	default:
		commonhttp.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"type":    string(apperrors.ClientError),
			"name":    "MethodNotAllowed",
			"message": "method not allowed",
		})
	}
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	authorizedUser, _ := jwtverify.FromContext(r.Context())

	var req postMessageRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("post message failed: invalid json: %v", err)
	}

	var missing []string
	if req.Author == "" {
		missing = append(missing, "author")
	}
	if req.Text == "" {
		missing = append(missing, "text")
	}
	if len(missing) > 0 {
		name := "MissingChatText"
		if missing[0] == "author" {
			name = "MissingAuthor"
		}
		commonhttp.WriteAppError(w, apperrors.Client(
			name,
			http.StatusBadRequest,
			"The following fields are missing: %s. Please re-enter the chat message.",
			strings.Join(missing, ", "),
		))
		return
	}

	msg, err := h.chat.Post(r.Context(), req.Author, req.Text, authorizedUser)
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	h.hub.Broadcast(ws.Event{Event: ws.EventNewChatMessage, Data: msg})

	commonhttp.WriteSuccess(w, http.StatusCreated, commonhttp.Success{
		Name:           "ChatMessageCreated",
		Message:        "Message posted successfully",
		AuthorizedUser: authorizedUser,
		Payload:        msg,
	})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	authorizedUser, _ := jwtverify.FromContext(r.Context())

	messages, err := h.chat.ListAll(r.Context())
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	name := "ChatMessagesFound"
	if len(messages) == 0 {
		name = "NoChatMessagesFound"
	}
	commonhttp.WriteSuccess(w, http.StatusOK, commonhttp.Success{
		Name:           name,
		Message:        "Messages retrieved successfully",
		AuthorizedUser: authorizedUser,
		Payload:        messages,
	})
}

func (h *Handler) listUsernames(w http.ResponseWriter, r *http.Request) {
	authorizedUser, _ := jwtverify.FromContext(r.Context())

	usernames, err := h.chat.ListUsernames(r.Context())
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, commonhttp.Success{
		Name:           "UsersFound",
		Message:        "Users retrieved successfully",
		AuthorizedUser: authorizedUser,
		Payload:        usernames,
	})
}

func (h *Handler) userByName(w http.ResponseWriter, r *http.Request) {
	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/chat/users"), "/")
	if username == "" {
		h.listUsernames(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getUser(w, r, username)
	case http.MethodDelete:
		h.deleteUser(w, r, username)
	default:
		commonhttp.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"type":    string(apperrors.ClientError),
			"name":    "MethodNotAllowed",
			"message": "method not allowed",
		})
	}
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request, username string) {
	authorizedUser, _ := jwtverify.FromContext(r.Context())

	user, err := h.chat.GetUser(r.Context(), username)
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, commonhttp.Success{
		Name:           "UserFound",
		Message:        "User found successfully",
		AuthorizedUser: authorizedUser,
		Payload:        user,
	})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, username string) {
	authorizedUser, _ := jwtverify.FromContext(r.Context())

	user, deletedMessages, err := h.chat.DeleteUserAndMessages(r.Context(), username)
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, commonhttp.Success{
		Name:           "UserDeleted",
		Message:        fmt.Sprintf("User %s and %d messages deleted successfully", username, deletedMessages),
		AuthorizedUser: authorizedUser,
		Payload:        user,
	})
}
