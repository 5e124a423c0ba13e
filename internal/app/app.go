// Package app assembles the whole application: configuration, storage,
// services, and the HTTP surface. Everything is constructed here and
// passed down explicitly; nothing below this package reads globals.
package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "webchat/internal/auth/http"
	authservice "webchat/internal/auth/service"
	"webchat/internal/auth/token"
	chathttp "webchat/internal/chat/http"
	chatservice "webchat/internal/chat/service"
	"webchat/internal/chat/ws"
	"webchat/internal/common/clock"
	"webchat/internal/common/config"
	commoncrypto "webchat/internal/common/crypto"
	commonhttp "webchat/internal/common/http"
	"webchat/internal/common/httpmetrics"
	"webchat/internal/common/jwtverify"
	"webchat/internal/common/logger"
	historyhttp "webchat/internal/history/http"
	historyservice "webchat/internal/history/service"
	"webchat/internal/storage"
	"webchat/internal/storage/memory"
	"webchat/internal/storage/postgres"
)

// App holds the assembled application.
type App struct {
	Handler http.Handler
	Hub     *ws.Hub
	Store   storage.Store

	cancelHub context.CancelFunc
}

// New builds the application against the given store. The store is chosen
// by the caller (in-memory or database) and never swapped afterwards.
func New(cfg config.Config, store storage.Store, log *logger.Logger) (*App, error) {
	clk := clock.NewRealClock()
	ids := commoncrypto.NewUUIDGenerator()
	hasher := &commoncrypto.BcryptHasher{}

	tokens, err := token.NewService(cfg.JWTKey, cfg.JWTExpiry, ids, clk)
	if err != nil {
		return nil, err
	}

	identity := authservice.NewIdentityService(store, hasher, ids, log)
	chat := chatservice.NewChatService(store, ids, clk, log)
	history := historyservice.NewHistoryService(store, ids, log)

	hubCtx, cancelHub := context.WithCancel(context.Background())
	hub := ws.NewHub(log)
	go hub.Run(hubCtx)

	gate := jwtverify.Middleware(tokens, log)

	// Request deadlines cover the REST surface only; /ws connections are
	// long-lived and manage their own read/write deadlines.
	timeout := commonhttp.WithTimeout(cfg.RequestTimeout)

	mux := http.NewServeMux()
	mux.Handle("/auth/", timeout(authhttp.NewHandler(identity, tokens, log).ServeHTTP))
	mux.Handle("/chat/", timeout(gate(chathttp.NewHandler(chat, hub, log)).ServeHTTP))
	mux.Handle("/history/", timeout(historyhttp.NewHandler(history, log).ServeHTTP))
	mux.Handle("/ws", ws.Handler(hub, tokens, log))
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = httpmetrics.Wrap(mux)
	handler = commonhttp.TraceIDMiddleware(handler)
	handler = commonhttp.RecoveryMiddleware(log)(handler)

	return &App{
		Handler:   handler,
		Hub:       hub,
		Store:     store,
		cancelHub: cancelHub,
	}, nil
}

// Shutdown stops the websocket hub. The HTTP server is drained separately
// by the caller.
func (a *App) Shutdown(ctx context.Context) error {
	a.cancelHub()
	return nil
}

// OpenStore picks the storage backend for the configured stage: EARLY runs
// on the in-memory store, everything else connects to the database.
func OpenStore(ctx context.Context, cfg config.Config, log *logger.Logger) (storage.Store, error) {
	if cfg.Stage == config.StageEarly {
		log.Info("using in-memory store")
		return memory.New(), nil
	}
	return postgres.Connect(ctx, log, cfg.DatabaseURL)
}
