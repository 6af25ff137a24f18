package crawler

import (
	"sync"

	"github.com/rendis/storetap/internal/model"
)

// Queue is the FIFO frontier of candidate points. Duplicates are allowed;
// they are filtered when a point's cell is marked visited.
type Queue struct {
	mu    sync.Mutex
	items []model.GeoPoint
	head  int
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends p at the tail.
func (q *Queue) Push(p model.GeoPoint) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
}

// PushAll appends pts at the tail in order.
func (q *Queue) PushAll(pts []model.GeoPoint) {
	q.mu.Lock()
	q.items = append(q.items, pts...)
	q.mu.Unlock()
}

// Pop removes and returns the head of the queue.
func (q *Queue) Pop() (model.GeoPoint, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return model.GeoPoint{}, false
	}
	p := q.items[q.head]
	q.head++

	// reclaim the consumed prefix once it dominates the backing array
	if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return p, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
