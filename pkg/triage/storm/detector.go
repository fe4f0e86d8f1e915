// Package storm detects bursts of near-identical tickets and consolidates
// them into a single master incident.
//
// Detection runs in two stages. A purely temporal volume gate tracks recent
// arrival timestamps in a bounded sliding window; once arrivals exceed the
// volume threshold, tickets are diverted into a shared batch buffer. After a
// short coalescing delay the buffer is atomically swapped out; whichever
// caller observes the non-empty batch becomes the sole leader and creates
// exactly one incident and one consolidated notification, no matter how many
// concurrent tickets tripped the gate.
package storm

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

// Config holds storm detection thresholds.
type Config struct {
	// WindowSeconds bounds the trailing age of the arrival window.
	WindowSeconds int `yaml:"window_seconds"`
	// WindowCap bounds the number of tracked arrivals.
	WindowCap int `yaml:"window_cap"`
	// VolumeThreshold is the arrival count above which the gate fires.
	VolumeThreshold int `yaml:"volume_threshold"`
	// SimilarityThreshold is the cosine similarity above which a ticket
	// pair counts as near-identical.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// PairThreshold is the number of similar pairs needed to confirm a storm.
	PairThreshold int `yaml:"pair_threshold"`
	// MinSample is the minimum number of embedded tickets needed to confirm.
	MinSample int `yaml:"min_sample"`
	// CoalesceDelay is how long a gated ticket waits for concurrently
	// arriving storm tickets to join its batch.
	CoalesceDelay time.Duration `yaml:"coalesce_delay"`
}

// DefaultConfig returns the standard thresholds: 300s window capped at 200
// arrivals, gate above 10, confirmation at 10 pairs over 0.9 similarity.
func DefaultConfig() Config {
	return Config{
		WindowSeconds:       300,
		WindowCap:           200,
		VolumeThreshold:     10,
		SimilarityThreshold: 0.9,
		PairThreshold:       10,
		MinSample:           10,
		CoalesceDelay:       100 * time.Millisecond,
	}
}

// Detector is process-local shared state; it must be injected into every
// component that consults it.
type Detector struct {
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	window []time.Time
	batch  []*triage.Ticket
}

// New creates a detector with the given config.
func New(cfg Config) *Detector {
	if cfg.WindowCap <= 0 {
		cfg = DefaultConfig()
	}
	return &Detector{cfg: cfg, now: time.Now}
}

// ObserveArrival records one ticket arrival and reports whether the volume
// gate fires: true iff, after appending this arrival and evicting entries
// older than the window, more than VolumeThreshold arrivals remain. The
// check is temporal only; content is not considered here.
func (d *Detector) ObserveArrival() bool {
	now := d.now()
	maxAge := time.Duration(d.cfg.WindowSeconds) * time.Second

	d.mu.Lock()
	defer d.mu.Unlock()

	d.window = append(d.window, now)
	if len(d.window) > d.cfg.WindowCap {
		d.window = d.window[len(d.window)-d.cfg.WindowCap:]
	}
	cut := 0
	for cut < len(d.window) && now.Sub(d.window[cut]) > maxAge {
		cut++
	}
	if cut > 0 {
		d.window = d.window[cut:]
	}

	return len(d.window) > d.cfg.VolumeThreshold
}

// AddToBatch appends a gated ticket to the shared batch buffer.
func (d *Detector) AddToBatch(t *triage.Ticket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batch = append(d.batch, t)
}

// TakeBatch atomically swaps the batch buffer for an empty one and returns
// the previous contents. Exactly one of any set of concurrent callers
// observes a non-empty result; the rest get nil. This is the leader
// election for consolidated incident creation.
func (d *Detector) TakeBatch() []*triage.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()
	batch := d.batch
	d.batch = nil
	return batch
}

// CoalesceDelay returns how long a gated ticket should wait before
// attempting to take the batch.
func (d *Detector) CoalesceDelay() time.Duration {
	return d.cfg.CoalesceDelay
}

// IsStorm confirms a candidate batch by content: it counts ticket pairs
// whose embeddings exceed the similarity threshold and reports true iff at
// least PairThreshold pairs match and at least MinSample tickets carry
// embeddings. Cost is O(k²) in the embedded sample size, which the window
// cap keeps small.
func (d *Detector) IsStorm(tickets []*triage.Ticket) bool {
	var embeddings [][]float64
	for _, t := range tickets {
		if len(t.Embedding) > 0 {
			embeddings = append(embeddings, t.Embedding)
		}
	}
	if len(embeddings) < d.cfg.MinSample {
		return false
	}

	similar := 0
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			if CosineSimilarity(embeddings[i], embeddings[j]) > d.cfg.SimilarityThreshold {
				similar++
				if similar >= d.cfg.PairThreshold {
					return true
				}
			}
		}
	}
	return false
}

// Consolidate creates the master incident for a batch: every member is
// marked duplicate with the incident id, and individual dispatch for them
// is suppressed by the caller. Incidents are terminal once created.
func (d *Detector) Consolidate(batch []*triage.Ticket) *triage.Incident {
	inc := &triage.Incident{
		ID:        uuid.New().String(),
		CreatedAt: d.now(),
	}
	for _, t := range batch {
		t.IsDuplicate = true
		t.MasterIncidentID = inc.ID
		inc.MemberTicketIDs = append(inc.MemberTicketIDs, t.ID)
	}
	if len(batch) > 0 {
		inc.SampleText = batch[0].Text
	}
	return inc
}

// CosineSimilarity computes the cosine similarity of two vectors. Empty or
// zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
