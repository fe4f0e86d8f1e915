// Package feed maintains the bounded recent-activity buffer backing the
// dashboard: a most-recent-first ring of processed-ticket summaries.
package feed

import (
	"sync"
	"time"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

// DefaultCapacity bounds the number of retained entries.
const DefaultCapacity = 25

// maxTextLen truncates stored ticket text for display.
const maxTextLen = 120

// Entry is a processed-ticket summary shown on the dashboard.
type Entry struct {
	TicketID         string          `json:"ticket_id"`
	Text             string          `json:"text"`
	Category         triage.Category `json:"category,omitempty"`
	Urgency          float64         `json:"urgency"`
	IsDuplicate      bool            `json:"is_duplicate"`
	MasterIncidentID string          `json:"master_incident_id,omitempty"`
	AssignedAgent    string          `json:"assigned_agent,omitempty"`
	ProcessedAt      time.Time       `json:"processed_at"`
}

// Feed is a fixed-capacity, most-recent-first ring buffer. A fresh Feed is
// created at process startup, so stale entries from a prior run are never
// shown.
type Feed struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// New creates an empty feed with the given capacity.
func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{capacity: capacity}
}

// Add records a processed ticket, evicting the oldest entry when full.
func (f *Feed) Add(t *triage.Ticket, assignedAgent string, processedAt time.Time) {
	entry := Entry{
		TicketID:         t.ID,
		Text:             truncate(t.Text),
		Category:         t.Category,
		Urgency:          t.Urgency,
		IsDuplicate:      t.IsDuplicate,
		MasterIncidentID: t.MasterIncidentID,
		AssignedAgent:    assignedAgent,
		ProcessedAt:      processedAt,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[len(f.entries)-f.capacity:]
	}
}

// Recent returns the retained entries, most recent first.
func (f *Feed) Recent() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, len(f.entries))
	for i, e := range f.entries {
		out[len(f.entries)-1-i] = e
	}
	return out
}

// Len returns the number of retained entries.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func truncate(s string) string {
	if len(s) <= maxTextLen {
		return s
	}
	return s[:maxTextLen]
}
