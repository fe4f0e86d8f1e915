// Package classify provides ticket classification: category, urgency score,
// and text embedding. An Engine fronts two Model implementations and selects
// between them based on the shared circuit breaker, trading accuracy for
// latency while the primary path is degraded.
package classify

import (
	"context"
	"time"

	"github.com/smartsupport/triage-engine/pkg/triage"
	"github.com/smartsupport/triage-engine/pkg/triage/breaker"
)

// Result is the outcome of classifying one ticket text.
type Result struct {
	Category  triage.Category
	Urgency   float64
	Embedding []float64
	// Model is the name of the model that produced the result.
	Model string
	// Latency is the wall-clock duration of the classification call.
	Latency time.Duration
}

// Model classifies ticket text. Implementations must be safe for concurrent
// use; per-ticket tasks run in parallel.
type Model interface {
	// Name identifies the model in logs and metrics.
	Name() string
	// Classify returns the ticket category. Unrecognized output is coerced
	// to the default category before it leaves the engine.
	Classify(ctx context.Context, text string) (triage.Category, error)
	// Urgency returns an urgency estimate in [0,1].
	Urgency(ctx context.Context, text string) (float64, error)
	// Embed returns a vector representation of the text.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Engine runs classification through the primary model while the breaker is
// closed and through the fallback model while it is open. The breaker handle
// is shared with the worker, which records the latency the engine reports.
type Engine struct {
	primary  Model
	fallback Model
	breaker  *breaker.Breaker
}

// NewEngine creates an engine over the given models and shared breaker.
func NewEngine(primary, fallback Model, b *breaker.Breaker) *Engine {
	return &Engine{primary: primary, fallback: fallback, breaker: b}
}

// Process classifies one ticket text: category, urgency, and embedding in a
// single timed pass. The reported latency covers the whole pass and is what
// the caller feeds back into the breaker.
func (e *Engine) Process(ctx context.Context, text string) (Result, error) {
	model := e.primary
	if e.breaker.Open() {
		model = e.fallback
	}

	start := time.Now()

	category, err := model.Classify(ctx, text)
	if err != nil {
		return Result{Model: model.Name(), Latency: time.Since(start)}, err
	}
	urgency, err := model.Urgency(ctx, text)
	if err != nil {
		return Result{Model: model.Name(), Latency: time.Since(start)}, err
	}
	embedding, err := model.Embed(ctx, text)
	if err != nil {
		return Result{Model: model.Name(), Latency: time.Since(start)}, err
	}

	if urgency < 0 {
		urgency = 0
	} else if urgency > 1 {
		urgency = 1
	}

	return Result{
		Category:  triage.ParseCategory(string(category)),
		Urgency:   urgency,
		Embedding: embedding,
		Model:     model.Name(),
		Latency:   time.Since(start),
	}, nil
}

// Embed computes only the embedding for a text, using whichever model the
// breaker currently selects. The storm detector uses this for tickets that
// short-circuit past full classification.
func (e *Engine) Embed(ctx context.Context, text string) ([]float64, error) {
	model := e.primary
	if e.breaker.Open() {
		model = e.fallback
	}
	return model.Embed(ctx, text)
}
