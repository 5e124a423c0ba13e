package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"webchat/internal/auth/service"
	"webchat/internal/auth/token"
	apperrors "webchat/internal/common/errors"
	commonhttp "webchat/internal/common/http"
	"webchat/internal/common/logger"
	userdomain "webchat/internal/user/domain"
)

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Credentials credentials `json:"credentials"`
	Extra       string      `json:"extra" validate:"required"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type authenticatedUser struct {
	User  userdomain.User `json:"user"`
	Token string          `json:"token"`
}

type Handler struct {
	identity *service.IdentityService
	tokens   *token.Service
	validate *validator.Validate
	log      *logger.Logger
}

func NewHandler(identity *service.IdentityService, tokens *token.Service, log *logger.Logger) http.Handler {
	h := &Handler{
		identity: identity,
		tokens:   tokens,
		validate: validator.New(),
		log:      log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/users", commonhttp.RequireMethod(http.MethodPost)(h.register))
	mux.HandleFunc("/auth/tokens/", commonhttp.RequireMethod(http.MethodPost)(h.login))
	mux.HandleFunc("/auth/tokens", commonhttp.RequireMethod(http.MethodPost)(h.login))
	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("register failed: invalid json: %v", err)
		commonhttp.WriteAppError(w, missingFieldsError(nil, "email", "password", "name"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			commonhttp.WriteAppError(w, registerFieldsError(ve))
			return
		}
		commonhttp.HandleError(w, err, h.log)
		return
	}

	user, err := h.identity.Register(r.Context(), req.Credentials.Username, req.Credentials.Password, req.Extra)
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	commonhttp.WriteSuccess(w, http.StatusCreated, commonhttp.Success{
		Name:    "UserRegistered",
		Message: fmt.Sprintf("User %s created", user.Username),
		Payload: user,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/auth/tokens"), "/")

	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("login failed: invalid json: %v", err)
	}

	var missing []string
	if username == "" {
		missing = append(missing, "email")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		commonhttp.WriteAppError(w, missingFieldsError(missing))
		return
	}

	user, err := h.identity.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		commonhttp.HandleError(w, err, h.log)
		return
	}

	signed, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.log.Errorf("login failed: token issue error: %v", err)
		commonhttp.WriteAppError(w, apperrors.Server(
			"FailedAuthentication",
			"An error occurred during login. Please try again later.",
		))
		return
	}

	commonhttp.WriteSuccess(w, http.StatusOK, commonhttp.Success{
		Name:    "UserAuthenticated",
		Message: fmt.Sprintf("User %s is authenticated", user.Username),
		Payload: authenticatedUser{User: user, Token: signed},
	})
}

// registerFieldsError maps validator failures, in struct declaration
// order, to the per-field client error names.
func registerFieldsError(ve validator.ValidationErrors) *apperrors.AppError {
	var missing []string
	for _, fe := range ve {
		switch {
		case strings.HasSuffix(fe.StructNamespace(), "Credentials.Username"):
			missing = append(missing, "email")
		case strings.HasSuffix(fe.StructNamespace(), "Credentials.Password"):
			missing = append(missing, "password")
		case strings.HasSuffix(fe.StructNamespace(), "Extra"):
			missing = append(missing, "name")
		}
	}
	return missingFieldsError(missing)
}

func missingFieldsError(missing []string, fallback ...string) *apperrors.AppError {
	if len(missing) == 0 {
		missing = fallback
	}

	name := "MissingDisplayName"
	for _, field := range missing {
		if field == "email" {
			name = "MissingUsername"
			break
		}
		if field == "password" {
			name = "MissingPassword"
			break
		}
	}

	return apperrors.Client(
		name,
		http.StatusBadRequest,
		"The following fields are missing: %s.",
		strings.Join(missing, ", "),
	)
}
