package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

func TestQueue_DequeueHighestUrgencyFirst(t *testing.T) {
	q := NewQueue()

	q.Enqueue(&triage.Ticket{ID: "a", Urgency: 0.2})
	q.Enqueue(&triage.Ticket{ID: "b", Urgency: 0.9})

	first := q.Dequeue()
	require.NotNil(t, first)
	assert.Equal(t, "b", first.ID)

	second := q.Dequeue()
	require.NotNil(t, second)
	assert.Equal(t, "a", second.ID)
}

func TestQueue_EqualUrgencyIsFIFO(t *testing.T) {
	q := NewQueue()

	for i := 0; i < 10; i++ {
		q.Enqueue(&triage.Ticket{ID: fmt.Sprintf("t-%d", i), Urgency: 0.5})
	}

	for i := 0; i < 10; i++ {
		got := q.Dequeue()
		require.NotNil(t, got)
		assert.Equal(t, fmt.Sprintf("t-%d", i), got.ID)
	}
}

func TestQueue_MixedOrdering(t *testing.T) {
	q := NewQueue()

	q.Enqueue(&triage.Ticket{ID: "mid-1", Urgency: 0.5})
	q.Enqueue(&triage.Ticket{ID: "high", Urgency: 0.9})
	q.Enqueue(&triage.Ticket{ID: "mid-2", Urgency: 0.5})
	q.Enqueue(&triage.Ticket{ID: "low", Urgency: 0.1})

	var order []string
	for tk := q.Dequeue(); tk != nil; tk = q.Dequeue() {
		order = append(order, tk.ID)
	}
	assert.Equal(t, []string{"high", "mid-1", "mid-2", "low"}, order)
}

func TestQueue_DequeueEmptyReturnsNil(t *testing.T) {
	q := NewQueue()
	assert.Nil(t, q.Dequeue())
}

func TestQueue_Depth(t *testing.T) {
	q := NewQueue()
	assert.Equal(t, 0, q.Depth())

	q.Enqueue(&triage.Ticket{ID: "a", Urgency: 0.3})
	q.Enqueue(&triage.Ticket{ID: "b", Urgency: 0.7})
	assert.Equal(t, 2, q.Depth())

	q.Dequeue()
	assert.Equal(t, 1, q.Depth())
}
