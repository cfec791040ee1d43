package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type job struct {
	ID   int
	Name string
}

func TestQueue_FIFO(t *testing.T) {
	q := New[job]()
	require.True(t, q.Empty())

	q.Push(job{ID: 1, Name: "first"}, job{ID: 2}, job{ID: 3})
	assert.Equal(t, 3, q.Len())

	assert.Equal(t, job{ID: 1, Name: "first"}, q.Pop())
	next, ok := q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 2, next.ID)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_PopEmpty(t *testing.T) {
	q := New[job]()

	assert.Equal(t, job{}, q.Pop())
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueue_ClearAndDrain(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)
	q.Clear()
	assert.True(t, q.Empty())

	q.Push(4, 5, 6)
	assert.Equal(t, []int{4, 5, 6}, q.GetAndEmpty())
	assert.True(t, q.Empty())
	assert.Empty(t, q.GetAndEmpty())
}

func TestQueue_GrowsPastInitialCapacity(t *testing.T) {
	q := New[int]()
	for i := 0; i < 1000; i++ {
		q.Push(i)
		if i%3 == 0 {
			q.Pop()
		}
	}
	drained := q.GetAndEmpty()
	require.NotEmpty(t, drained)
	for i := 1; i < len(drained); i++ {
		assert.Less(t, drained[i-1], drained[i], "order must survive ring buffer growth")
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.Push(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, q.Len())

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Pop()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
}
