package lobby

import (
	"context"
	"sync"
)

// PublishLog is an interface for publishing book event logs (opens, matches,
// cancels, replenishments, rejects).
//
// IMPORTANT: Implementations must either:
//  1. Process logs synchronously before returning, OR
//  2. Clone the BookLog data before returning
//
// The caller recycles BookLog objects to a sync.Pool after Publish returns,
// so any asynchronous processing must work with cloned data.
type PublishLog interface {
	Publish(...*BookLog)
}

// MemoryPublishLog stores logs in memory, useful for testing.
type MemoryPublishLog struct {
	mu   sync.RWMutex
	logs []*BookLog
}

// NewMemoryPublishLog creates a new MemoryPublishLog.
func NewMemoryPublishLog() *MemoryPublishLog {
	return &MemoryPublishLog{
		logs: make([]*BookLog, 0),
	}
}

// Publish appends cloned logs to the in-memory slice.
func (m *MemoryPublishLog) Publish(logs ...*BookLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range logs {
		cpy := new(BookLog)
		*cpy = *log
		m.logs = append(m.logs, cpy)
	}
}

// Count returns the number of logs stored.
func (m *MemoryPublishLog) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.logs)
}

// Get returns the log at the specified index.
func (m *MemoryPublishLog) Get(index int) *BookLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logs[index]
}

// Logs returns a copy of all logs stored.
func (m *MemoryPublishLog) Logs() []*BookLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	logs := make([]*BookLog, len(m.logs))
	copy(logs, m.logs)
	return logs
}

// DiscardPublishLog discards all logs, useful for benchmarking.
type DiscardPublishLog struct {
}

// NewDiscardPublishLog creates a new DiscardPublishLog.
func NewDiscardPublishLog() *DiscardPublishLog {
	return &DiscardPublishLog{}
}

// Publish does nothing.
func (p *DiscardPublishLog) Publish(logs ...*BookLog) {

}

// RingPublishLog hands cloned logs to an MPSC ring buffer so downstream
// consumers (e.g. a DepthView) never block the matching goroutine.
type RingPublishLog struct {
	ring *RingBuffer[*BookLog]
}

// NewRingPublishLog creates a ring-backed publisher feeding the handler.
// capacity must be a power of 2.
func NewRingPublishLog(capacity int64, handler EventHandler[*BookLog]) *RingPublishLog {
	return &RingPublishLog{
		ring: NewRingBuffer[*BookLog](capacity, handler),
	}
}

// Publish clones each log before handing it off; the originals go back to
// the pool as soon as this returns.
func (p *RingPublishLog) Publish(logs ...*BookLog) {
	for _, log := range logs {
		cpy := new(BookLog)
		*cpy = *log
		p.ring.Publish(cpy)
	}
}

// Start runs the consumer loop until Shutdown.
func (p *RingPublishLog) Start() {
	p.ring.Start()
}

// Shutdown stops the consumer after draining published slots.
func (p *RingPublishLog) Shutdown(ctx context.Context) error {
	return p.ring.Shutdown(ctx)
}
