package crawler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/storetap/internal/model"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Push(model.GeoPoint{Lat: 1})
	q.PushAll([]model.GeoPoint{{Lat: 2}, {Lat: 3}})
	q.Push(model.GeoPoint{Lat: 1})

	assert.Equal(t, 4, q.Len())
	for _, want := range []float64{1, 2, 3, 1} {
		p, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, p.Lat)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Zero(t, q.Len())
}

func TestQueue_CompactionKeepsOrder(t *testing.T) {
	q := NewQueue()
	for i := range 500 {
		q.Push(model.GeoPoint{Lat: float64(i)})
		if i%3 == 0 {
			_, _ = q.Pop()
		}
	}

	prev := -1.0
	for q.Len() > 0 {
		p, ok := q.Pop()
		require.True(t, ok)
		assert.Greater(t, p.Lat, prev)
		prev = p.Lat
	}
	assert.Equal(t, 499.0, prev)
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	q := NewQueue()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 250 {
				q.Push(model.GeoPoint{Lat: float64(w), Lng: float64(i)})
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1000, q.Len())

	var mu sync.Mutex
	popped := 0
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := q.Pop(); !ok {
					return
				}
				mu.Lock()
				popped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, popped)
}
