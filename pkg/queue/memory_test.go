package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_order(t *testing.T) {
	q := NewInMemoryQueue(4)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	require.NoError(t, q.Enqueue("c"))
	assert.Equal(t, 3, q.Size())

	first, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	rest, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"b", "c"}, rest)
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueue_full(t *testing.T) {
	q := NewInMemoryQueue(1)
	require.NoError(t, q.Enqueue(1))
	assert.ErrorIs(t, q.Enqueue(2), ErrQueueFull)
}

func TestInMemoryQueue_empty(t *testing.T) {
	q := NewInMemoryQueue(1)
	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	items, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInMemoryQueue_clear(t *testing.T) {
	q := NewInMemoryQueue(3)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.ClearQueue())
	assert.Equal(t, 0, q.Size())
}
