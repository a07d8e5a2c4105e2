package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueue_FIFO(t *testing.T) {
	q := newJobQueue()
	for i := int64(1); i <= 3; i++ {
		require.True(t, q.Enqueue(&job{seq: i}))
	}
	assert.Equal(t, 3, q.Len())

	for want := int64(1); want <= 3; want++ {
		j, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, j.seq)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestJobQueue_SignalCoalesces(t *testing.T) {
	q := newJobQueue()
	q.Enqueue(&job{seq: 1})
	q.Enqueue(&job{seq: 2})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestJobQueue_CloseReturnsPendingAndRejects(t *testing.T) {
	q := newJobQueue()
	q.Enqueue(&job{seq: 1})
	q.Enqueue(&job{seq: 2})

	rest := q.Close()
	require.Len(t, rest, 2)
	assert.Equal(t, int64(1), rest[0].seq)

	assert.False(t, q.Enqueue(&job{seq: 3}))
	assert.Nil(t, q.Close(), "second close is a no-op")

	_, open := <-q.Wait()
	assert.False(t, open, "pending wake-up is dropped and the channel is closed")
}

func TestJobQueue_ConcurrentEnqueue(t *testing.T) {
	q := newJobQueue()
	const workers, per = 8, 100

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range per {
				q.Enqueue(&job{seq: int64(w*per + i)})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*per, q.Len())
}
