package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

func billingTicket(id string) *triage.Ticket {
	return &triage.Ticket{ID: id, Category: triage.CategoryBilling, Urgency: 0.5}
}

func TestRegistry_AssignPrefersSkill(t *testing.T) {
	r := NewRegistry(DefaultRoster())

	assert.Equal(t, "agent-1", r.Assign(billingTicket("t1")))
	assert.Equal(t, "agent-2", r.Assign(&triage.Ticket{ID: "t2", Category: triage.CategoryTechnical}))
	assert.Equal(t, "agent-3", r.Assign(&triage.Ticket{ID: "t3", Category: triage.CategoryLegal}))
}

func TestRegistry_AssignIsDeterministic(t *testing.T) {
	// Identical roster state must always pick the same agent.
	for i := 0; i < 5; i++ {
		r := NewRegistry(DefaultRoster())
		assert.Equal(t, "agent-1", r.Assign(billingTicket("t")))
	}
}

func TestRegistry_TieResolvesToFirstRegistered(t *testing.T) {
	roster := []triage.Agent{
		{ID: "alpha", Skills: map[triage.Category]float64{triage.CategoryBilling: 0.5}, Capacity: 5},
		{ID: "beta", Skills: map[triage.Category]float64{triage.CategoryBilling: 0.5}, Capacity: 5},
	}
	r := NewRegistry(roster)

	assert.Equal(t, "alpha", r.Assign(billingTicket("t1")))
}

func TestRegistry_SkipsFullAgents(t *testing.T) {
	roster := []triage.Agent{
		{ID: "small", Skills: map[triage.Category]float64{triage.CategoryBilling: 0.9}, Capacity: 1},
		{ID: "big", Skills: map[triage.Category]float64{triage.CategoryBilling: 0.1}, Capacity: 5},
	}
	r := NewRegistry(roster)

	assert.Equal(t, "small", r.Assign(billingTicket("t1")))
	// small is now at capacity; the weaker agent must take over.
	assert.Equal(t, "big", r.Assign(billingTicket("t2")))
}

func TestRegistry_NeverQueuedWhileCapacityRemains(t *testing.T) {
	r := NewRegistry(DefaultRoster())

	// Total capacity is 13; every one of 13 assignments must land.
	for i := 0; i < 13; i++ {
		got := r.Assign(billingTicket("t"))
		assert.NotEqual(t, Queued, got, "assignment %d", i)
	}
	assert.Equal(t, Queued, r.Assign(billingTicket("overflow")))
}

func TestRegistry_ZeroSkillStillEligible(t *testing.T) {
	roster := []triage.Agent{
		{ID: "only", Skills: map[triage.Category]float64{triage.CategoryBilling: 0.9}, Capacity: 2},
	}
	r := NewRegistry(roster)

	// Legal is absent from the skill map: score 0, but still assignable.
	assert.Equal(t, "only", r.Assign(&triage.Ticket{ID: "t", Category: triage.CategoryLegal}))
}

func TestRegistry_ReleaseClampsAtZero(t *testing.T) {
	r := NewRegistry(DefaultRoster())

	r.Assign(billingTicket("t1"))
	assert.Equal(t, 1, r.Load("agent-1"))

	r.Release("agent-1")
	assert.Equal(t, 0, r.Load("agent-1"))

	// Double release must not drive load negative.
	r.Release("agent-1")
	assert.Equal(t, 0, r.Load("agent-1"))
}

func TestRegistry_ReleaseUnknownAgentIsNoop(t *testing.T) {
	r := NewRegistry(DefaultRoster())
	r.Release("nobody")
	assert.Equal(t, -1, r.Load("nobody"))
}

func TestRegistry_ResolveReleasesAssignedAgent(t *testing.T) {
	r := NewRegistry(DefaultRoster())

	agent := r.Assign(billingTicket("t1"))
	assert.Equal(t, 1, r.Load(agent))

	released := r.Resolve("t1")
	assert.Equal(t, agent, released)
	assert.Equal(t, 0, r.Load(agent))

	// Resolving twice is a no-op.
	assert.Equal(t, "", r.Resolve("t1"))
	assert.Equal(t, 0, r.Load(agent))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(DefaultRoster())
	r.Assign(billingTicket("t1"))

	snap := r.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, AgentLoad{AgentID: "agent-1", Load: 1, Capacity: 5}, snap[0])
}
