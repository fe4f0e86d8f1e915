// Package breaker implements a latency-driven circuit breaker that toggles
// the classifier between its primary and fallback models.
//
// The breaker watches per-call classification latency. A run of consecutive
// slow samples opens the circuit (fallback model); a run of consecutive fast
// samples closes it again (primary model). Samples in the band between the
// two thresholds are inconclusive and reset both counters without changing
// state, so stale counters cannot combine with future extremes to flip the
// state prematurely.
package breaker

import (
	"sync"
	"time"
)

// State is the circuit state.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Config holds breaker thresholds.
type Config struct {
	// HighThreshold is the latency above which a sample counts as slow.
	HighThreshold time.Duration `yaml:"high_threshold"`
	// LowThreshold is the latency below which a sample counts as fast.
	LowThreshold time.Duration `yaml:"low_threshold"`
	// OpenCount is the number of consecutive slow samples that opens the circuit.
	OpenCount int `yaml:"open_count"`
	// CloseCount is the number of consecutive fast samples that closes it.
	CloseCount int `yaml:"close_count"`
}

// DefaultConfig returns the standard thresholds: open after 3 samples over
// 500ms, close after 5 samples under 200ms.
func DefaultConfig() Config {
	return Config{
		HighThreshold: 500 * time.Millisecond,
		LowThreshold:  200 * time.Millisecond,
		OpenCount:     3,
		CloseCount:    5,
	}
}

// Breaker is a process-local shared state object. It must be passed
// explicitly to every component that records or reads it; there is no
// ambient global instance.
type Breaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	consecutiveSlow int
	consecutiveFast int
	onTransition    func(State)
}

// New creates a closed breaker with the given config.
func New(cfg Config) *Breaker {
	if cfg.OpenCount <= 0 || cfg.CloseCount <= 0 {
		cfg = DefaultConfig()
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// OnTransition registers a callback invoked (under the breaker lock) each
// time the state changes. Used for logging and metrics.
func (b *Breaker) OnTransition(fn func(State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTransition = fn
}

// Record feeds one classification latency sample into the state machine.
func (b *Breaker) Record(latency time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case latency > b.cfg.HighThreshold:
		b.consecutiveSlow++
		b.consecutiveFast = 0
		if b.consecutiveSlow >= b.cfg.OpenCount && b.state != StateOpen {
			b.state = StateOpen
			if b.onTransition != nil {
				b.onTransition(StateOpen)
			}
		}
	case latency < b.cfg.LowThreshold:
		b.consecutiveFast++
		b.consecutiveSlow = 0
		if b.consecutiveFast >= b.cfg.CloseCount && b.state != StateClosed {
			b.state = StateClosed
			b.consecutiveFast = 0
			if b.onTransition != nil {
				b.onTransition(StateClosed)
			}
		}
	default:
		// Mid-band sample: inconclusive.
		b.consecutiveSlow = 0
		b.consecutiveFast = 0
	}
}

// RecordFailure treats a failed or timed-out classification call as a
// maximal-latency sample so the breaker still reacts to a hung model.
func (b *Breaker) RecordFailure() {
	b.Record(b.cfg.HighThreshold + time.Millisecond)
}

// Open reports whether the circuit is open (fallback path active).
func (b *Breaker) Open() bool {
	return b.State() == StateOpen
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
