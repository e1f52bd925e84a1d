package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueueOrdersAscending(t *testing.T) {
	pq := NewPriorityQueue[string]()
	pq.Enqueue("c", 3.5)
	pq.Enqueue("a", -1)
	pq.Enqueue("b", 0.25)

	var got []string
	for !pq.IsEmpty() {
		v, _, ok := pq.Dequeue()
		require.True(t, ok)
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)

	_, _, ok := pq.Dequeue()
	assert.False(t, ok)
}

func TestPriorityQueueTiesKeepInsertionOrder(t *testing.T) {
	pq := NewPriorityQueue[int]()
	for i := 0; i < 10; i++ {
		pq.Enqueue(i, 0)
	}
	for i := 0; i < 10; i++ {
		v, p, ok := pq.Dequeue()
		require.True(t, ok)
		assert.Equal(t, i, v)
		assert.Equal(t, 0.0, p)
	}
}

func TestPriorityQueuePeekAndReset(t *testing.T) {
	pq := NewPriorityQueue[string]()
	_, _, ok := pq.Peek()
	assert.False(t, ok)

	pq.Enqueue("late", 10)
	pq.Enqueue("early", 1)

	v, p, ok := pq.Peek()
	require.True(t, ok)
	assert.Equal(t, "early", v)
	assert.Equal(t, 1.0, p)
	assert.Equal(t, 2, pq.Len())

	pq.Reset()
	assert.Equal(t, 0, pq.Len())
	assert.True(t, pq.IsEmpty())
}
