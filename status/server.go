// Package status exposes a read-only HTTP JSON view of the protocol
// runtime: whether it's up, how many filtered subscriptions a transport
// currently carries, and the most recent PPL orchestrator run. Routed with
// chi and started/stopped the way web.Server wraps http.Server, grounded
// on web/server.go's Start/Stop/IsRunning trio. It never feeds back into
// the runtime it reports on -- pplctl/ercictl work identically with or
// without it running.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rbridge/ppl"
)

// SubscriberCounter is satisfied by transport.Transport: the number of
// live filtered subscriptions currently registered.
type SubscriberCounter interface {
	SubscriberCount() int
}

// LastRunProvider is satisfied by ppl.Client: the structured log of the
// most recently completed orchestrator run.
type LastRunProvider interface {
	Log() ppl.Log
}

// Server is a small read-only status surface. Both Transport and Client
// are optional; routes report a zero value rather than failing when the
// corresponding collaborator was never attached.
type Server struct {
	addr      string
	transport SubscriberCounter
	client    LastRunProvider

	mu      sync.Mutex
	server  *http.Server
	running bool
}

// New creates a status Server bound to addr. transport and client may be
// nil; the routes that depend on them report zero values in that case.
func New(addr string, transport SubscriberCounter, client LastRunProvider) *Server {
	return &Server{addr: addr, transport: transport, client: client}
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/transport/subscribers", s.handleSubscribers)
	r.Get("/ppl/last-run", s.handleLastRun)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	count := 0
	if s.transport != nil {
		count = s.transport.SubscriberCount()
	}
	writeJSON(w, http.StatusOK, map[string]int{"subscribers": count})
}

func (s *Server) handleLastRun(w http.ResponseWriter, r *http.Request) {
	if s.client == nil {
		writeJSON(w, http.StatusOK, ppl.Log{})
		return
	}
	writeJSON(w, http.StatusOK, s.client.Log())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start begins serving in the background. Calling Start on an
// already-running Server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			s.running = false
			return fmt.Errorf("status: listen on %s: %w", s.addr, err)
		}
	case <-time.After(50 * time.Millisecond):
	}

	s.running = true
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.running = false
	s.server = nil
	return err
}

// IsRunning reports whether the server is currently accepting requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
