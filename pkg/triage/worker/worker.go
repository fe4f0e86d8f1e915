// Package worker implements the ticket dispatch orchestrator: a
// single-consumer intake loop that claims each delivery through an
// idempotency lock, short-circuits storms, classifies with a latency-driven
// circuit breaker, and routes tickets to agents through the priority
// dispatch queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	terrors "github.com/smartsupport/triage-engine/pkg/errors"
	"github.com/smartsupport/triage-engine/pkg/logging"
	"github.com/smartsupport/triage-engine/pkg/triage"
	"github.com/smartsupport/triage-engine/pkg/triage/breaker"
	"github.com/smartsupport/triage-engine/pkg/triage/classify"
	"github.com/smartsupport/triage-engine/pkg/triage/dispatch"
	"github.com/smartsupport/triage-engine/pkg/triage/feed"
	"github.com/smartsupport/triage-engine/pkg/triage/notify"
	"github.com/smartsupport/triage-engine/pkg/triage/observability"
	"github.com/smartsupport/triage-engine/pkg/triage/storm"
)

// IntakeQueue is the at-least-once delivery source. Pop returns (nil, nil)
// on timeout with an empty queue.
type IntakeQueue interface {
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Locker provides cross-process create-if-absent idempotency locks.
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

// Classifier produces category, urgency, embedding, and call latency.
type Classifier interface {
	Process(ctx context.Context, text string) (classify.Result, error)
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Archiver persists processed tickets and incidents. Optional; a nil
// archiver disables persistence.
type Archiver interface {
	SaveTicket(ctx context.Context, t *triage.Ticket, agentID string) error
	SaveIncident(ctx context.Context, inc *triage.Incident) error
}

// Config holds worker tunables.
type Config struct {
	// PopTimeout is the blocking-pop timeout against the intake queue.
	PopTimeout time.Duration `yaml:"pop_timeout"`
	// ConnectivityBackoff is the retry delay after queue connectivity loss.
	ConnectivityBackoff time.Duration `yaml:"connectivity_backoff"`
	// LoopBackoff is the delay after any other intake-loop failure.
	LoopBackoff time.Duration `yaml:"loop_backoff"`
	// ClassifyTimeout is the hard cap on one classification call. A
	// timeout is recorded as a maximal latency sample.
	ClassifyTimeout time.Duration `yaml:"classify_timeout"`
	// UrgencyAlertThreshold triggers a high-urgency notification when a
	// dispatched ticket's urgency exceeds it.
	UrgencyAlertThreshold float64 `yaml:"urgency_alert_threshold"`
	// MaxConcurrency bounds simultaneously in-flight per-ticket tasks.
	// Intake blocks once saturated.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// DefaultConfig returns the standard worker tunables.
func DefaultConfig() Config {
	return Config{
		PopTimeout:            5 * time.Second,
		ConnectivityBackoff:   3 * time.Second,
		LoopBackoff:           time.Second,
		ClassifyTimeout:       10 * time.Second,
		UrgencyAlertThreshold: 0.8,
		MaxConcurrency:        64,
	}
}

// Deps wires the worker's collaborators. Queue, Locks, Classifier, Breaker,
// Storms, Dispatch, Agents, Sink, Feed, and Metrics are required; Store and
// Tracer are optional.
type Deps struct {
	Queue      IntakeQueue
	Locks      Locker
	Classifier Classifier
	Breaker    *breaker.Breaker
	Storms     *storm.Detector
	Dispatch   *dispatch.Queue
	Agents     *dispatch.Registry
	Sink       notify.Sink
	Feed       *feed.Feed
	Metrics    *observability.Metrics
	Store      Archiver
	Tracer     *observability.Tracer
	Logger     logging.Logger
}

// Worker consumes the intake queue and runs the per-ticket pipeline.
type Worker struct {
	cfg  Config
	deps Deps

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a worker.
func New(cfg Config, deps Deps) *Worker {
	if cfg.PopTimeout <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Tracer == nil {
		deps.Tracer = observability.NewTracer()
	}
	deps.Logger = deps.Logger.With(logging.F("component", "ticket_worker"))
	return &Worker{
		cfg:  cfg,
		deps: deps,
		sem:  semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
	}
}

// Run blocks on the intake loop until ctx is cancelled, then waits for
// in-flight per-ticket tasks to finish. The loop has no natural completion
// state: pop timeouts loop again, connectivity failures back off and retry,
// and any other loop-level failure backs off briefly and continues.
func (w *Worker) Run(ctx context.Context) error {
	w.deps.Logger.Info("worker started")

	for {
		if ctx.Err() != nil {
			break
		}

		payload, err := w.deps.Queue.Pop(ctx, w.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if terrors.IsConnectivity(err) {
				w.deps.Logger.Error("queue connectivity lost, backing off",
					logging.Err(err),
					logging.F("backoff", w.cfg.ConnectivityBackoff))
				w.sleep(ctx, w.cfg.ConnectivityBackoff)
			} else {
				w.deps.Logger.Error("unexpected intake loop error", logging.Err(err))
				w.sleep(ctx, w.cfg.LoopBackoff)
			}
			continue
		}
		if payload == nil {
			// Pop timeout with an empty queue.
			continue
		}

		// Each delivery is processed in its own goroutine so one slow
		// ticket never blocks intake. The semaphore bounds in-flight
		// tasks; acquisition blocks intake once saturated.
		if err := w.sem.Acquire(ctx, 1); err != nil {
			break
		}
		w.wg.Add(1)
		go func(raw []byte) {
			defer w.wg.Done()
			defer w.sem.Release(1)
			w.process(ctx, raw)
		}(payload)
	}

	w.deps.Logger.Info("worker draining")
	w.wg.Wait()
	return nil
}

// process runs the full pipeline for one raw delivery. All failure
// isolation happens here: nothing escapes to the intake loop.
func (w *Worker) process(ctx context.Context, raw []byte) {
	var rec triage.RawTicket
	if err := json.Unmarshal(raw, &rec); err != nil || rec.ID == "" {
		if err == nil {
			err = fmt.Errorf("%w: missing ticket id", terrors.ErrMalformedRecord)
		}
		w.deps.Metrics.MalformedRecordsTotal.Inc()
		w.deps.Logger.Warn("dropping malformed record", logging.Err(err))
		return
	}

	ticket := triage.NewTicket(rec.ID, rec.Text)
	log := w.deps.Logger.With(logging.F("ticket_id", ticket.ID))

	ctx, span := w.deps.Tracer.StartTicketSpan(ctx, ticket.ID)
	defer span.End()

	acquired, err := w.deps.Locks.Acquire(ctx, ticket.LockKey())
	if err != nil {
		w.deps.Metrics.TicketsProcessedTotal.WithLabelValues("lock_error").Inc()
		log.Error("lock acquisition failed", logging.Err(err))
		observability.RecordError(span, err)
		return
	}
	if !acquired {
		// Expected under at-least-once delivery; the first claim wins.
		w.deps.Metrics.DuplicateDeliveriesTotal.Inc()
		log.Info("duplicate delivery skipped")
		return
	}
	// The lock is deliberately never released: its TTL bounds the
	// reprocessing-suppression window.

	if w.deps.Storms.ObserveArrival() {
		w.handleStorm(ctx, ticket, log)
		return
	}

	w.classifyAndDispatch(ctx, ticket, log)
}

// classifyAndDispatch runs classification and routes through the priority
// dispatch queue.
func (w *Worker) classifyAndDispatch(ctx context.Context, ticket *triage.Ticket, log logging.Logger) {
	res, err := w.classify(ctx, ticket.Text)
	if err != nil {
		w.deps.Metrics.TicketsProcessedTotal.WithLabelValues("classify_error").Inc()
		log.Error("classification failed", logging.Err(err))
		return
	}

	ticket.Category = res.Category
	ticket.Urgency = res.Urgency
	ticket.Embedding = res.Embedding

	w.dispatchTicket(ctx, ticket, log)
}

// classify runs one classification call under the hard timeout and feeds
// the breaker. A failure or timeout is recorded as a maximal sample so the
// breaker still reacts to a hung model.
func (w *Worker) classify(ctx context.Context, text string) (classify.Result, error) {
	cctx, cancel := context.WithTimeout(ctx, w.cfg.ClassifyTimeout)
	defer cancel()

	cctx, span := w.deps.Tracer.StartClassifySpan(cctx)
	defer span.End()

	res, err := w.deps.Classifier.Process(cctx, text)
	if err != nil {
		w.deps.Breaker.RecordFailure()
		w.deps.Metrics.ClassifyFailuresTotal.Inc()
		w.updateBreakerGauge()
		observability.RecordError(span, err)
		return classify.Result{}, fmt.Errorf("%w: %w", terrors.ErrClassification, err)
	}

	w.deps.Breaker.Record(res.Latency)
	w.deps.Metrics.ClassifyLatencySeconds.WithLabelValues(res.Model).Observe(res.Latency.Seconds())
	w.updateBreakerGauge()
	return res, nil
}

// dispatchTicket enqueues the ticket, dispatches the highest-urgency
// pending ticket to an agent, publishes it to the dashboard feed, and
// emits a high-urgency notification when warranted.
func (w *Worker) dispatchTicket(ctx context.Context, ticket *triage.Ticket, log logging.Logger) {
	w.deps.Dispatch.Enqueue(ticket)

	// Dispatch strictly by urgency: the ticket assigned now is the most
	// urgent one pending, which may differ from the one just enqueued
	// when tasks complete out of order.
	next := w.deps.Dispatch.Dequeue()
	w.deps.Metrics.DispatchQueueDepth.Set(float64(w.deps.Dispatch.Depth()))
	if next == nil {
		// Another task drained our entry; its dispatch covers it.
		return
	}

	agentID := w.deps.Agents.Assign(next)
	w.deps.Metrics.AssignmentsTotal.WithLabelValues(agentID).Inc()
	w.deps.Metrics.TicketsProcessedTotal.WithLabelValues("dispatched").Inc()

	now := time.Now()
	w.deps.Feed.Add(next, agentID, now)

	log.Info("ticket dispatched",
		logging.F("dispatched_id", next.ID),
		logging.F("category", string(next.Category)),
		logging.F("urgency", next.Urgency),
		logging.F("agent", agentID))

	if w.deps.Store != nil {
		if err := w.deps.Store.SaveTicket(ctx, next, agentID); err != nil {
			log.Warn("ticket archive failed", logging.Err(err))
		}
	}

	if next.Urgency > w.cfg.UrgencyAlertThreshold {
		w.deps.Metrics.NotificationsTotal.WithLabelValues("high_urgency").Inc()
		w.deps.Sink.Deliver(ctx, notify.HighUrgencyText(next, agentID))
	}
}

// handleStorm runs the storm coalescing protocol for a ticket that tripped
// the volume gate. The ticket joins the shared batch, waits out the
// coalescing delay, and the single caller that wins the batch swap becomes
// the leader: it either consolidates a confirmed storm into one incident
// with one notification, or routes the unconfirmed batch through normal
// dispatch so no ticket is dropped.
func (w *Worker) handleStorm(ctx context.Context, ticket *triage.Ticket, log logging.Logger) {
	if emb, err := w.deps.Classifier.Embed(ctx, ticket.Text); err == nil {
		ticket.Embedding = emb
	} else {
		log.Warn("embedding failed for storm candidate", logging.Err(err))
	}
	w.deps.Storms.AddToBatch(ticket)

	w.sleep(ctx, w.deps.Storms.CoalesceDelay())

	batch := w.deps.Storms.TakeBatch()
	if len(batch) == 0 {
		// Another caller took the batch and leads this window.
		return
	}

	if !w.deps.Storms.IsStorm(batch) {
		log.Info("storm volume gate fired but similarity unconfirmed, dispatching individually",
			logging.F("batch_size", len(batch)))
		for _, t := range batch {
			w.classifyAndDispatch(ctx, t, w.deps.Logger.With(logging.F("ticket_id", t.ID)))
		}
		return
	}

	ctx, span := w.deps.Tracer.StartStormSpan(ctx, len(batch))
	defer span.End()

	inc := w.deps.Storms.Consolidate(batch)
	w.deps.Metrics.StormIncidentsTotal.Inc()
	w.deps.Metrics.StormSuppressedTicketsTotal.Add(float64(len(batch)))

	now := time.Now()
	for _, t := range batch {
		w.deps.Metrics.TicketsProcessedTotal.WithLabelValues("storm_suppressed").Inc()
		w.deps.Feed.Add(t, "", now)
	}

	log.Info("storm detected, individual routing suppressed",
		logging.F("incident_id", inc.ID),
		logging.F("member_count", len(inc.MemberTicketIDs)))

	if w.deps.Store != nil {
		if err := w.deps.Store.SaveIncident(ctx, inc); err != nil {
			log.Warn("incident archive failed", logging.Err(err))
		}
	}

	w.deps.Metrics.NotificationsTotal.WithLabelValues("storm").Inc()
	w.deps.Sink.Deliver(ctx, notify.StormText(inc))
}

func (w *Worker) updateBreakerGauge() {
	if w.deps.Breaker.Open() {
		w.deps.Metrics.BreakerOpen.Set(1)
	} else {
		w.deps.Metrics.BreakerOpen.Set(0)
	}
}

// sleep waits for d or until ctx is cancelled.
func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
