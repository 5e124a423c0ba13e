package ws

import (
	"net/http"

	gorillaWS "github.com/gorilla/websocket"

	apperrors "webchat/internal/common/errors"
	commonhttp "webchat/internal/common/http"
	"webchat/internal/common/jwtverify"
	"webchat/internal/common/logger"
)

var upgrader = gorillaWS.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades an authenticated request to a websocket subscription.
// Browsers cannot set headers on websocket dials, so the token is accepted
// from the Authorization header or a `token` query parameter.
func Handler(hub *Hub, tokens jwtverify.Verifier, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := jwtverify.ExtractBearer(r)
		if !ok {
			raw = r.URL.Query().Get("token")
		}
		if raw == "" {
			commonhttp.WriteAppError(w, apperrors.Client(
				"MissingToken",
				http.StatusUnauthorized,
				"Please log in to access this page.",
			))
			return
		}

		username, err := tokens.Verify(raw)
		if err != nil {
			log.Warnf("websocket auth failed: %v", err)
			commonhttp.WriteAppError(w, apperrors.Client(
				"InvalidToken",
				http.StatusUnauthorized,
				"Please log in to access this page.",
			))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed username=%s: %v", username, err)
			return
		}

		client := NewClient(hub, conn, username, log)
		hub.Register(client)
		client.Start()
	})
}
