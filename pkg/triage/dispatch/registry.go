package dispatch

import (
	"sync"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

// Queued is the sentinel returned by Assign when no agent has spare capacity.
const Queued = "queued"

// agentState pairs a roster entry with its live load.
type agentState struct {
	agent triage.Agent
	load  int
}

// Registry tracks agent skill, capacity, and load, and performs assignment.
// The roster is fixed at construction; enumeration order is the registration
// order, which makes tie-breaking deterministic.
type Registry struct {
	mu          sync.Mutex
	roster      []*agentState
	byID        map[string]*agentState
	assignments map[string]string // ticket id -> agent id
}

// NewRegistry creates a registry with the given roster. Roster order is
// preserved and used for stable tie-breaking in Assign.
func NewRegistry(roster []triage.Agent) *Registry {
	r := &Registry{
		byID:        make(map[string]*agentState, len(roster)),
		assignments: make(map[string]string),
	}
	for _, a := range roster {
		st := &agentState{agent: a}
		r.roster = append(r.roster, st)
		r.byID[a.ID] = st
	}
	return r
}

// DefaultRoster returns the built-in three-agent roster used when no roster
// is configured.
func DefaultRoster() []triage.Agent {
	return []triage.Agent{
		{
			ID:       "agent-1",
			Skills:   map[triage.Category]float64{triage.CategoryBilling: 0.9, triage.CategoryTechnical: 0.2, triage.CategoryLegal: 0.1},
			Capacity: 5,
		},
		{
			ID:       "agent-2",
			Skills:   map[triage.Category]float64{triage.CategoryBilling: 0.3, triage.CategoryTechnical: 0.9, triage.CategoryLegal: 0.2},
			Capacity: 5,
		},
		{
			ID:       "agent-3",
			Skills:   map[triage.Category]float64{triage.CategoryBilling: 0.4, triage.CategoryTechnical: 0.4, triage.CategoryLegal: 0.9},
			Capacity: 3,
		},
	}
}

// Assign picks the agent with the greatest skill×availability score for the
// ticket's category and increments its load. Agents at capacity are skipped.
// Ties resolve to the first agent in roster order. When no agent is eligible
// it returns Queued and leaves all loads unchanged.
func (r *Registry) Assign(t *triage.Ticket) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *agentState
	bestScore := -1.0

	for _, st := range r.roster {
		if st.load >= st.agent.Capacity {
			continue
		}
		skill := st.agent.Skills[t.Category]
		availability := 1 - float64(st.load)/float64(st.agent.Capacity)
		score := skill * availability
		if score > bestScore {
			bestScore = score
			best = st
		}
	}

	if best == nil {
		return Queued
	}

	best.load++
	r.assignments[t.ID] = best.agent.ID
	return best.agent.ID
}

// Release decrements the agent's load, clamped at zero so a double release
// never violates the load invariant. Unknown agent ids are a no-op, keeping
// release idempotent under retries.
func (r *Registry) Release(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release(agentID)
}

func (r *Registry) release(agentID string) {
	st, ok := r.byID[agentID]
	if !ok {
		return
	}
	if st.load > 0 {
		st.load--
	}
}

// Resolve releases the agent assigned to the given ticket, if any, and
// forgets the assignment. It returns the released agent id, or "" when the
// ticket had no recorded assignment.
func (r *Registry) Resolve(ticketID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	agentID, ok := r.assignments[ticketID]
	if !ok {
		return ""
	}
	delete(r.assignments, ticketID)
	r.release(agentID)
	return agentID
}

// Load returns the current load for an agent, or -1 for unknown ids.
func (r *Registry) Load(agentID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.byID[agentID]
	if !ok {
		return -1
	}
	return st.load
}

// Snapshot reports per-agent load/capacity for health and dashboard output.
func (r *Registry) Snapshot() []AgentLoad {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AgentLoad, 0, len(r.roster))
	for _, st := range r.roster {
		out = append(out, AgentLoad{
			AgentID:  st.agent.ID,
			Load:     st.load,
			Capacity: st.agent.Capacity,
		})
	}
	return out
}

// AgentLoad is a point-in-time view of one agent's utilization.
type AgentLoad struct {
	AgentID  string `json:"agent_id"`
	Load     int    `json:"load"`
	Capacity int    `json:"capacity"`
}
