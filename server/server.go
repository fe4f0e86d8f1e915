// Package server implements the HTTP ingestion gateway: ticket intake,
// health, dashboard, resolution, and metrics endpoints. Acceptance into the
// queue is success; downstream processing outcomes never surface here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartsupport/triage-engine/pkg/buildinfo"
	"github.com/smartsupport/triage-engine/pkg/logging"
	"github.com/smartsupport/triage-engine/pkg/triage"
	"github.com/smartsupport/triage-engine/pkg/triage/breaker"
	"github.com/smartsupport/triage-engine/pkg/triage/dispatch"
	"github.com/smartsupport/triage-engine/pkg/triage/feed"
)

// Pusher accepts raw tickets into the intake queue.
type Pusher interface {
	Push(ctx context.Context, raw triage.RawTicket) error
	Depth(ctx context.Context) (int64, error)
}

// Server is the ingestion gateway.
type Server struct {
	queue    Pusher
	breaker  *breaker.Breaker
	dispatch *dispatch.Queue
	agents   *dispatch.Registry
	feed     *feed.Feed
	logger   logging.Logger

	httpServer *http.Server
}

// New creates a gateway bound to addr.
func New(addr string, queue Pusher, b *breaker.Breaker, dq *dispatch.Queue, agents *dispatch.Registry, f *feed.Feed, logger logging.Logger) *Server {
	s := &Server{
		queue:    queue,
		breaker:  b,
		dispatch: dq,
		agents:   agents,
		feed:     f,
		logger:   logger.With(logging.F("component", "gateway")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ticket", s.handleCreateTicket)
	mux.HandleFunc("POST /ticket/{id}/resolve", s.handleResolveTicket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /version", buildinfo.Handler("triage-engine"))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", logging.F("addr", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ticketRequest is the intake payload. ID is generated when omitted.
type ticketRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// acceptedResponse acknowledges a queued ticket.
type acceptedResponse struct {
	Status   string `json:"status"`
	TicketID string `json:"ticket_id"`
	Message  string `json:"message"`
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req ticketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if err := s.queue.Push(r.Context(), triage.RawTicket{ID: req.ID, Text: req.Text}); err != nil {
		s.logger.Error("ticket enqueue failed", logging.Err(err))
		writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{
		Status:   "accepted",
		TicketID: req.ID,
		Message:  "Ticket queued for processing",
	})
}

// resolveResponse reports the released assignment for a resolved ticket.
type resolveResponse struct {
	TicketID      string `json:"ticket_id"`
	ReleasedAgent string `json:"released_agent"`
}

func (s *Server) handleResolveTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := r.PathValue("id")
	agentID := s.agents.Resolve(ticketID)
	if agentID == "" {
		writeError(w, http.StatusNotFound, "no assignment recorded for ticket")
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{TicketID: ticketID, ReleasedAgent: agentID})
}

// healthResponse reports engine health for operators.
type healthResponse struct {
	Status         string               `json:"status"`
	QueueDepth     int64                `json:"queue_depth"`
	DispatchDepth  int                  `json:"dispatch_depth"`
	CircuitBreaker breaker.State        `json:"circuit_breaker"`
	Agents         []dispatch.AgentLoad `json:"agents"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:         "ok",
		DispatchDepth:  s.dispatch.Depth(),
		CircuitBreaker: s.breaker.State(),
		Agents:         s.agents.Snapshot(),
	}

	depth, err := s.queue.Depth(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.QueueDepth = -1
	} else {
		resp.QueueDepth = depth
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recent": s.feed.Recent(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
