package pending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueue_FIFO(t *testing.T) {
	queue := NewQueue[int]()
	for i := 0; i < 5; i++ {
		v := i
		queue.Push(&v)
	}
	assert.Equal(t, 5, queue.Size())

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		entry, err := queue.Consume(ctx)
		assert.NoError(t, err)
		assert.Equal(t, i, *entry.T())
		assert.NotEmpty(t, entry.ID())
	}
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_TryConsumeEmpty(t *testing.T) {
	queue := NewQueue[string]()
	entry, ok := queue.TryConsume()
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue := NewQueue[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	queue := NewQueue[int]()
	const n = 100
	for i := 0; i < n; i++ {
		go func(v int) { queue.Push(&v) }(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	seen := map[int]bool{}
	for i := 0; i < n; i++ {
		entry, err := queue.Consume(ctx)
		assert.NoError(t, err)
		seen[*entry.T()] = true
	}
	assert.Len(t, seen, n)
}
