// Package cmd provides CLI commands for the triage engine.
package cmd

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/smartsupport/triage-engine/config"
	"github.com/smartsupport/triage-engine/pkg/logging"
	"github.com/smartsupport/triage-engine/pkg/triage/breaker"
	"github.com/smartsupport/triage-engine/pkg/triage/classify"
	"github.com/smartsupport/triage-engine/pkg/triage/dispatch"
	"github.com/smartsupport/triage-engine/pkg/triage/feed"
	"github.com/smartsupport/triage-engine/pkg/triage/notify"
	"github.com/smartsupport/triage-engine/pkg/triage/observability"
	"github.com/smartsupport/triage-engine/pkg/triage/redisq"
	"github.com/smartsupport/triage-engine/pkg/triage/storm"
	"github.com/smartsupport/triage-engine/pkg/triage/store"
	"github.com/smartsupport/triage-engine/pkg/triage/worker"
)

// engine bundles the wired components shared by the worker and the gateway.
type engine struct {
	logger   logging.Logger
	queue    *redisq.Queue
	locks    *redisq.LockStore
	breaker  *breaker.Breaker
	storms   *storm.Detector
	dispatch *dispatch.Queue
	agents   *dispatch.Registry
	feed     *feed.Feed
	sink     notify.Sink
	metrics  *observability.Metrics
	worker   *worker.Worker
	archive  *store.Store
}

// buildEngine wires every component from configuration. All shared state
// (breaker, storm detector, registry) is constructed once here and handed
// to both the worker and the gateway explicitly.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	logger := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		ServiceName: "triage-engine",
		JSONFormat:  cfg.Logging.JSON,
	})

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	e := &engine{
		logger:   logger,
		queue:    redisq.NewQueue(client, cfg.Redis.QueueKey),
		locks:    redisq.NewLockStore(client, cfg.Redis.LockTTL),
		breaker:  breaker.New(cfg.Breaker),
		storms:   storm.New(cfg.Storm),
		dispatch: dispatch.NewQueue(),
		agents:   dispatch.NewRegistry(cfg.Roster()),
		feed:     feed.New(feed.DefaultCapacity),
		metrics:  observability.DefaultMetrics(),
	}

	e.breaker.OnTransition(func(s breaker.State) {
		logger.Warn("circuit breaker transition", logging.F("state", string(s)))
	})

	if cfg.Webhook.URL != "" {
		e.sink = notify.NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Username, logger)
	} else {
		e.sink = notify.NewLogSink(logger)
	}

	classifier := classify.NewEngine(classify.NewKeywordModel(), classify.NewBaselineModel(), e.breaker)

	deps := worker.Deps{
		Queue:      e.queue,
		Locks:      e.locks,
		Classifier: classifier,
		Breaker:    e.breaker,
		Storms:     e.storms,
		Dispatch:   e.dispatch,
		Agents:     e.agents,
		Sink:       e.sink,
		Feed:       e.feed,
		Metrics:    e.metrics,
		Logger:     logger,
	}

	if cfg.Archive.Enabled {
		archive, err := store.Connect(ctx, cfg.Archive)
		if err != nil {
			return nil, err
		}
		if err := archive.Migrate(ctx); err != nil {
			archive.Close()
			return nil, err
		}
		e.archive = archive
		deps.Store = archive
	}

	e.worker = worker.New(cfg.Worker, deps)
	return e, nil
}

// Close releases engine resources.
func (e *engine) Close() {
	if e.archive != nil {
		e.archive.Close()
	}
}
