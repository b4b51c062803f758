package queue

import (
	"sync"

	"github.com/go-scripts/referral/internal/tracker"
	"github.com/go-scripts/referral/internal/types"
)

// Queue holds the connections still to be messaged in this run
type Queue struct {
	items   []types.Connection
	done    tracker.Set
	queued  map[string]bool
	skipped int
	mu      sync.Mutex
}

// New creates a Queue that refuses every profile already in done
func New(done tracker.Set) *Queue {
	return &Queue{
		items:  make([]types.Connection, 0),
		done:   done,
		queued: make(map[string]bool),
	}
}

// Add queues conn unless it was already messaged or already queued
func (q *Queue) Add(conn types.Connection) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.done.Has(conn.ProfileURL) || q.queued[conn.ProfileURL] {
		q.skipped++
		return false
	}

	q.queued[conn.ProfileURL] = true
	q.items = append(q.items, conn)
	return true
}

// Next returns the next connection to message
func (q *Queue) Next() (types.Connection, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return types.Connection{}, false
	}

	conn := q.items[0]
	q.items = q.items[1:]

	return conn, true
}

// Len returns the number of connections waiting
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Skipped returns how many connections Add refused
func (q *Queue) Skipped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.skipped
}
