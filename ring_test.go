package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectHandler struct {
	mu     sync.Mutex
	events []int
}

func (h *collectHandler) OnEvent(event int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *collectHandler) snapshot() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int, len(h.events))
	copy(out, h.events)
	return out
}

func TestRingBuffer_CapacityMustBePowerOfTwo(t *testing.T) {
	assert.Panics(t, func() { NewRingBuffer[int](0, &collectHandler{}) })
	assert.Panics(t, func() { NewRingBuffer[int](3, &collectHandler{}) })
	assert.NotPanics(t, func() { NewRingBuffer[int](16, &collectHandler{}) })
}

func TestRingBuffer_SingleProducerOrdering(t *testing.T) {
	h := &collectHandler{}
	rb := NewRingBuffer[int](16, h)
	rb.Start()

	const n = 1000
	for i := 0; i < n; i++ {
		rb.Publish(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	events := h.snapshot()
	require.Len(t, events, n)
	for i, e := range events {
		assert.Equal(t, i, e)
	}
}

func TestRingBuffer_MultiProducerDeliversAll(t *testing.T) {
	h := &collectHandler{}
	rb := NewRingBuffer[int](64, h)
	rb.Start()

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				rb.Publish(p*perProducer + i)
			}
		}(p)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	events := h.snapshot()
	require.Len(t, events, producers*perProducer)

	seen := make(map[int]bool, len(events))
	for _, e := range events {
		assert.False(t, seen[e], "event %d delivered twice", e)
		seen[e] = true
	}
}

func TestRingBuffer_PublishAfterShutdownIsDropped(t *testing.T) {
	h := &collectHandler{}
	rb := NewRingBuffer[int](16, h)
	rb.Start()

	rb.Publish(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	rb.Publish(2)
	assert.Equal(t, int64(0), rb.ProducerSequence())
	assert.Len(t, h.snapshot(), 1)
}

func TestRingBuffer_PendingEvents(t *testing.T) {
	h := &collectHandler{}
	rb := NewRingBuffer[int](16, h)

	// No consumer running yet; published events stay pending.
	rb.Publish(1)
	rb.Publish(2)
	assert.Equal(t, int64(2), rb.PendingEvents())

	rb.Start()
	assert.Eventually(t, func() bool {
		return rb.PendingEvents() == 0
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))
}
