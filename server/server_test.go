package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/triage-engine/pkg/logging"
	"github.com/smartsupport/triage-engine/pkg/triage"
	"github.com/smartsupport/triage-engine/pkg/triage/breaker"
	"github.com/smartsupport/triage-engine/pkg/triage/dispatch"
	"github.com/smartsupport/triage-engine/pkg/triage/feed"
)

// fakePusher records pushed tickets.
type fakePusher struct {
	mu      sync.Mutex
	pushed  []triage.RawTicket
	pushErr error
	depth   int64
	deptErr error
}

func (p *fakePusher) Push(ctx context.Context, raw triage.RawTicket) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushErr != nil {
		return p.pushErr
	}
	p.pushed = append(p.pushed, raw)
	return nil
}

func (p *fakePusher) Depth(ctx context.Context) (int64, error) {
	if p.deptErr != nil {
		return 0, p.deptErr
	}
	return p.depth, nil
}

func newTestServer(pusher *fakePusher) (*Server, *dispatch.Registry, *feed.Feed) {
	agents := dispatch.NewRegistry(dispatch.DefaultRoster())
	f := feed.New(10)
	srv := New("127.0.0.1:0", pusher, breaker.New(breaker.DefaultConfig()),
		dispatch.NewQueue(), agents, f, logging.Nop())
	return srv, agents, f
}

func TestCreateTicket_Accepted(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodPost, "/ticket",
		strings.NewReader(`{"id":"t-1","text":"printer on fire"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "t-1", resp["ticket_id"])

	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, "printer on fire", pusher.pushed[0].Text)
}

func TestCreateTicket_GeneratesIDWhenOmitted(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodPost, "/ticket",
		strings.NewReader(`{"text":"no id supplied"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pusher.pushed, 1)
	assert.NotEmpty(t, pusher.pushed[0].ID)
}

func TestCreateTicket_RejectsEmptyText(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodPost, "/ticket", strings.NewReader(`{"id":"t-1"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pusher.pushed)
}

func TestCreateTicket_RejectsInvalidJSON(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodPost, "/ticket", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTicket_QueueUnavailable(t *testing.T) {
	pusher := &fakePusher{pushErr: errors.New("redis gone")}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodPost, "/ticket",
		strings.NewReader(`{"id":"t-1","text":"hello"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResolveTicket(t *testing.T) {
	pusher := &fakePusher{}
	srv, agents, _ := newTestServer(pusher)

	agents.Assign(&triage.Ticket{ID: "t-1", Category: triage.CategoryBilling})

	req := httptest.NewRequest(http.MethodPost, "/ticket/t-1/resolve", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "t-1", resp["ticket_id"])
	assert.Equal(t, "agent-1", resp["released_agent"])
	assert.Equal(t, 0, agents.Load("agent-1"))
}

func TestResolveTicket_UnknownTicket(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodPost, "/ticket/nope/resolve", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	pusher := &fakePusher{depth: 7}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(7), resp.QueueDepth)
	assert.Equal(t, breaker.StateClosed, resp.CircuitBreaker)
	assert.Len(t, resp.Agents, 3)
}

func TestHealth_DegradedWhenQueueUnreachable(t *testing.T) {
	pusher := &fakePusher{deptErr: errors.New("redis gone")}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, int64(-1), resp.QueueDepth)
}

func TestDashboard(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, f := newTestServer(pusher)

	f.Add(&triage.Ticket{ID: "t-1", Text: "hello", Urgency: 0.4}, "agent-1", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Recent []feed.Entry `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Recent, 1)
	assert.Equal(t, "t-1", resp.Recent[0].TicketID)
	assert.Equal(t, "agent-1", resp.Recent[0].AssignedAgent)
}

func TestMetricsEndpoint(t *testing.T) {
	pusher := &fakePusher{}
	srv, _, _ := newTestServer(pusher)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
