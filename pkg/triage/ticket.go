// Package triage defines the core domain types for the ticket triage engine:
// tickets, categories, agents, and master incidents.
package triage

import (
	"strings"
	"time"
)

// Category is the closed set of ticket categories the engine routes on.
type Category string

const (
	CategoryBilling   Category = "Billing"
	CategoryTechnical Category = "Technical"
	CategoryLegal     Category = "Legal"
)

// DefaultCategory is the safe fallback for unrecognized classifier output.
const DefaultCategory = CategoryTechnical

// Categories lists all valid categories in a stable order.
func Categories() []Category {
	return []Category{CategoryBilling, CategoryTechnical, CategoryLegal}
}

// ParseCategory coerces arbitrary classifier output to a valid Category.
// Unknown or empty values map to DefaultCategory rather than propagating
// a free-form string into routing.
func ParseCategory(s string) Category {
	switch Category(strings.TrimSpace(s)) {
	case CategoryBilling:
		return CategoryBilling
	case CategoryTechnical:
		return CategoryTechnical
	case CategoryLegal:
		return CategoryLegal
	default:
		return DefaultCategory
	}
}

// RawTicket is the wire format of a ticket on the intake queue.
type RawTicket struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Ticket is a unit of incoming support work. It is created at ingestion with
// defaults, mutated by the classifier (category, urgency, embedding) and by
// the storm detector (duplicate marking). Ownership transfers linearly along
// the pipeline for a given ticket id; no two components mutate it concurrently.
type Ticket struct {
	ID               string    `json:"id"`
	Text             string    `json:"text"`
	Category         Category  `json:"category,omitempty"`
	Urgency          float64   `json:"urgency"`
	Embedding        []float64 `json:"-"`
	IsDuplicate      bool      `json:"is_duplicate"`
	MasterIncidentID string    `json:"master_incident_id,omitempty"`
}

// NewTicket constructs a ticket with ingestion defaults.
func NewTicket(id, text string) *Ticket {
	return &Ticket{ID: id, Text: text}
}

// LockKey returns the idempotency lock key for this ticket.
func (t *Ticket) LockKey() string {
	return "ticket:" + t.ID + ":lock"
}

// Incident consolidates a storm of near-identical tickets into a single
// record. Incidents are terminal once created; members are never re-merged.
type Incident struct {
	ID              string    `json:"id"`
	MemberTicketIDs []string  `json:"member_ticket_ids"`
	SampleText      string    `json:"sample_text"`
	CreatedAt       time.Time `json:"created_at"`
}

// Agent describes a routing target with per-category skill scores and a
// capacity budget. Live load accounting is owned by the dispatch registry,
// which maintains 0 <= load <= capacity at all times.
type Agent struct {
	ID       string               `yaml:"id"`
	Skills   map[Category]float64 `yaml:"skills"`
	Capacity int                  `yaml:"capacity"`
}
