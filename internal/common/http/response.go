package http

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "webchat/internal/common/errors"
	"webchat/internal/common/logger"
)

// Success is the response envelope for every 2xx body. Payload is the
// actual data; it is serialized as null when there is none.
type Success struct {
	Name           string `json:"name"`
	Message        string `json:"message,omitempty"`
	AuthorizedUser string `json:"authorizedUser,omitempty"`
	Payload        any    `json:"payload"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, status int, body Success) {
	WriteJSON(w, status, body)
}

func WriteAppError(w http.ResponseWriter, err *apperrors.AppError) {
	WriteJSON(w, err.HTTPStatus(), err)
}

// HandleError writes err as a structured response. Anything that is not an
// AppError is logged and reported as an opaque UnknownError.
func HandleError(w http.ResponseWriter, err error, log *logger.Logger) {
	if err == nil {
		return
	}

	if appErr, ok := apperrors.As(err); ok {
		if appErr.Type == apperrors.ServerError {
			log.Errorf("server error: %v", appErr)
		}
		WriteAppError(w, appErr)
		return
	}

	log.Errorf("unhandled error: %v", err)
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"type":    string(apperrors.UnknownError),
		"name":    "UnknownError",
		"message": "internal server error",
	})
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func RequireMethod(method string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
					"type":    string(apperrors.ClientError),
					"name":    "MethodNotAllowed",
					"message": "method not allowed",
				})
				return
			}
			next(w, r)
		}
	}
}

func WithTimeout(timeout time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := contextWithTimeout(r, timeout)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}
