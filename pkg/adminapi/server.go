// Package adminapi implements the admin command stream: the release_to_
// gateway/acquire rendez-vous exposed over HTTP so gatewayctl (or any
// operator tooling) can list sessions and force ownership handoffs.
//
// Grounded on the teacher's pkg/controlplane/api server shape (an
// http.Server wrapping a single resource, graceful Shutdown, JSON
// request/response bodies) with the JWT/auth layer dropped: the admin
// command stream in this gateway is a loopback-only management surface,
// not a multi-tenant control plane.
package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/wadaptive/artio-go/pkg/gwerrors"
	"github.com/wadaptive/artio-go/pkg/metrics"
	"github.com/wadaptive/artio-go/pkg/sessionreg"
)

// Server is an HTTP front end over a sessionreg.Registry.
//
// Endpoints:
//   - GET  /v1/sessions                 list known sessions and their owner
//   - POST /v1/sessions/{id}/release    release_to_gateway + ack, in one call
//   - POST /v1/sessions/{id}/acquire    acquire for a new owning worker
type Server struct {
	httpServer *http.Server
	registry   *sessionreg.Registry
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewServer creates an admin command stream server listening on addr.
// m may be nil, in which case handoff observations are a no-op.
func NewServer(addr string, registry *sessionreg.Registry, m *metrics.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{registry: registry, metrics: m, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/sessions", s.handleList)
	mux.HandleFunc("POST /v1/sessions/{id}/release", s.handleRelease)
	mux.HandleFunc("POST /v1/sessions/{id}/acquire", s.handleAcquire)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe starts serving and blocks until the server stops or ctx
// is cancelled, in which case it shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return s.httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type sessionListEntry struct {
	SessionID string `json:"session_id"`
	OwnerID   string `json:"owner_id"`
	Owned     bool   `json:"owned"`
}

type ownerRequest struct {
	LibraryID string `json:"library_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries := s.registry.ListAll()
	entries := make([]sessionListEntry, len(summaries))
	for i, sum := range summaries {
		entries[i] = sessionListEntry{
			SessionID: sum.SessionID,
			OwnerID:   sum.OwnerID,
			Owned:     sum.OwnerID != "",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gwerrors.InvalidMessage, err.Error())
		return
	}

	if err := s.registry.ReleaseToGateway(id, req.LibraryID); err != nil {
		s.metrics.ObserveAdminHandoff("release_to_gateway", outcomeOf(err))
		writeRegistryError(w, err)
		return
	}
	if err := s.registry.AckRelease(id); err != nil {
		s.metrics.ObserveAdminHandoff("release_to_gateway", outcomeOf(err))
		writeRegistryError(w, err)
		return
	}

	s.metrics.ObserveAdminHandoff("release_to_gateway", "ok")
	s.log.Info("session released to gateway", "session_id", id, "library_id", req.LibraryID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ownerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gwerrors.InvalidMessage, err.Error())
		return
	}

	if _, err := s.registry.Acquire(id, req.LibraryID); err != nil {
		s.metrics.ObserveAdminHandoff("acquire", outcomeOf(err))
		writeRegistryError(w, err)
		return
	}

	s.metrics.ObserveAdminHandoff("acquire", "ok")
	s.log.Info("session acquired", "session_id", id, "library_id", req.LibraryID)
	w.WriteHeader(http.StatusNoContent)
}

// outcomeOf maps a registry error to a low-cardinality metric label.
func outcomeOf(err error) string {
	ge, ok := err.(*gwerrors.Error)
	if !ok {
		return "error"
	}
	return ge.Code.String()
}

func writeRegistryError(w http.ResponseWriter, err error) {
	ge, ok := err.(*gwerrors.Error)
	if !ok {
		writeError(w, http.StatusInternalServerError, 0, err.Error())
		return
	}
	status := http.StatusConflict
	if ge.Code == gwerrors.UnknownSession {
		status = http.StatusNotFound
	}
	writeError(w, status, ge.Code, ge.Message)
}

func writeError(w http.ResponseWriter, status int, code gwerrors.Code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Code: code.String(), Message: message})
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string { return s.httpServer.Addr }
