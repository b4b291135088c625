package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/luxd/internal/config"
	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// HTTPServer serves the control API, the SSE stream, and the metrics
// and health endpoints on a single mux.
type HTTPServer struct {
	cfg     *config.Config
	d       *Daemon
	adapter *luxerrors.HTTPErrorAdapter
	server  *http.Server
}

// NewHTTPServer builds the server and its routes. Nothing listens until
// Start.
func NewHTTPServer(cfg *config.Config, d *Daemon) *HTTPServer {
	s := &HTTPServer{
		cfg:     cfg,
		d:       d,
		adapter: luxerrors.NewHTTPErrorAdapter(slog.Default()),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	chain := middlewareChain(slog.Default(), s.adapter)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("POST /api/state", s.handlePostState)
	mux.HandleFunc("GET /api/lock", s.handleGetLock)

	mux.HandleFunc("GET /api/profiles", s.handleListProfiles)
	mux.HandleFunc("POST /api/profiles", s.handleCreateProfile)
	mux.HandleFunc("DELETE /api/profiles", s.handleDeleteProfile)

	mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	mux.HandleFunc("POST /api/schedules", s.handleCreateSchedule)
	mux.HandleFunc("PUT /api/schedules", s.handleUpdateSchedule)
	mux.HandleFunc("DELETE /api/schedules", s.handleDeleteSchedule)

	mux.HandleFunc("GET /api/logs/event_history", s.handleReadLog(s.d.eventLog))
	mux.HandleFunc("GET /api/logs/led_history", s.handleReadLog(s.d.ledLog))
	mux.HandleFunc("POST /api/logs/event_history", s.handleAppendLog)
	mux.HandleFunc("GET /api/logs/archive", s.handleQueryArchive)

	mux.Handle("GET /events", s.d.hub)
	mux.HandleFunc("POST /events/state-request", s.handleStateRequest)

	mux.Handle("GET /metrics", s.d.metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Start serves until ctx is canceled or the listener fails.
func (s *HTTPServer) Start(ctx context.Context) error {
	slog.Info("HTTP server listening", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return luxerrors.Wrap(err, luxerrors.CategoryDaemon, luxerrors.SeverityFatal, "http server failed")
	}
}

// Shutdown drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// requestOrigin classifies a request: a loopback peer address is the
// local operator, everything else is remote. Unparseable addresses are
// treated as remote, the safe direction.
func requestOrigin(r *http.Request) lighting.Origin {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return lighting.OriginLocal
	}
	return lighting.OriginRemote
}
