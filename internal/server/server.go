package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/cookies"
	"github.com/grabtune/grabtune/internal/queue"
)

// VersionFunc reports the downloader binary version, used by the health
// endpoint.
type VersionFunc func(ctx context.Context) (string, error)

// Server is the HTTP front of the queue.
type Server struct {
	queue    *queue.Orchestrator
	cfg      *config.Manager
	cookies  *cookies.Manager
	version  VersionFunc
	hub      *Hub
	httpSrv  *http.Server
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// New wires the server and subscribes the WebSocket hub to queue updates.
func New(addr string, q *queue.Orchestrator, cfg *config.Manager, ck *cookies.Manager, version VersionFunc) *Server {
	s := &Server{
		queue:   q,
		cfg:     cfg,
		cookies: ck,
		version: version,
		hub:     NewHub(),
		upgrader: websocket.Upgrader{
			// The listener binds to loopback only; the desktop frontend
			// connects with a file:// or app:// origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: log.With().Str("component", "server").Logger(),
	}

	q.OnUpdate(s.hub.BroadcastJob)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/jobs", s.handleAddJob)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/jobs/{id}/retry", s.handleRetryJob)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancelJob)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleRemoveJob)

	mux.HandleFunc("GET /api/queue", s.handleQueueState)
	mux.HandleFunc("GET /api/queue/stats", s.handleQueueStats)
	mux.HandleFunc("POST /api/queue/pause", s.handlePause)
	mux.HandleFunc("POST /api/queue/resume", s.handleResume)
	mux.HandleFunc("POST /api/queue/clear-completed", s.handleClearCompleted)
	mux.HandleFunc("POST /api/queue/cancel-all", s.handleCancelAll)
	mux.HandleFunc("POST /api/queue/retry-failed", s.handleRetryAllFailed)
	mux.HandleFunc("PUT /api/queue/limit", s.handleSetLimit)

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.handlePutConfig)

	mux.HandleFunc("POST /api/cookies/import", s.handleImportCookies)
	mux.HandleFunc("GET /api/cookies", s.handleValidateCookies)
	mux.HandleFunc("DELETE /api/cookies", s.handleClearCookies)

	mux.HandleFunc("POST /api/downloads/open", s.handleOpenDownloads)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return mux
}

// Start runs the hub and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	go s.hub.Run()
	s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, disconnects WebSocket clients, and
// waits for in-flight requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Hub exposes the update hub for tests and for wiring extra broadcasts.
func (s *Server) Hub() *Hub {
	return s.hub
}
