// Package dispatch provides the priority dispatch queue and the skill-aware
// agent registry that together route classified tickets to human agents.
package dispatch

import (
	"container/heap"
	"sync"

	"github.com/smartsupport/triage-engine/pkg/triage"
)

// Queue orders tickets for assignment by urgency. Among tickets of equal
// urgency, dispatch order is strict FIFO: a monotonically increasing
// sequence number is attached at enqueue time and used as the tie-break,
// so older tickets are never starved by equal-urgency newcomers.
type Queue struct {
	mu    sync.Mutex
	items ticketHeap
	seq   uint64
}

// NewQueue creates an empty dispatch queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue inserts a ticket in O(log n).
func (q *Queue) Enqueue(t *triage.Ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, &queueItem{ticket: t, seq: q.seq})
	q.seq++
}

// Dequeue removes and returns the highest-urgency ticket, or nil if the
// queue is empty.
func (q *Queue) Dequeue() *triage.Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	item := heap.Pop(&q.items).(*queueItem)
	return item.ticket
}

// Depth returns the current queue size in O(1).
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type queueItem struct {
	ticket *triage.Ticket
	seq    uint64
}

type ticketHeap []*queueItem

func (h ticketHeap) Len() int { return len(h) }

func (h ticketHeap) Less(i, j int) bool {
	if h[i].ticket.Urgency != h[j].ticket.Urgency {
		return h[i].ticket.Urgency > h[j].ticket.Urgency
	}
	return h[i].seq < h[j].seq
}

func (h ticketHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *ticketHeap) Push(x any) {
	*h = append(*h, x.(*queueItem))
}

func (h *ticketHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
