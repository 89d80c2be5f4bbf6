// Package buffer implements the fixed-capacity in-memory ring of recent log
// entries, with incrementally maintained statistics and change notification.
//
// The ring and its statistics form a single consistency domain guarded by
// one mutex: every mutation (Add, Clear) and every snapshot read observes the
// buffer at one consistent point in time.
package buffer

import (
	"errors"
	"sync"
	"time"

	"github.com/fidde/logring/pkg/models"
)

// ErrInvalidCapacity is returned by New when the configured capacity is not
// a positive integer.
var ErrInvalidCapacity = errors.New("buffer capacity must be positive")

// Config holds buffer construction parameters.
type Config struct {
	// Capacity is the fixed number of ring slots. Must be positive.
	Capacity int

	// NotifyQueueSize bounds the notification queue between Add and the
	// subscriber dispatch worker. When full, the oldest pending
	// notification is dropped; the ring remains the source of truth.
	NotifyQueueSize int
}

// DefaultConfig returns the default buffer configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:        1000,
		NotifyQueueSize: 256,
	}
}

// Buffer is a fixed-capacity circular store of log entries. It is safe for
// concurrent use by any number of writers and readers.
type Buffer struct {
	mu       sync.RWMutex
	entries  []*models.LogEntry // ring slots, len == capacity
	head     int                // next write position
	count    int                // occupied slots, <= capacity
	capacity int
	nextID   int64 // last assigned ID; survives Clear

	// Incremental statistics, mutated only under mu together with the ring.
	levelCounts map[models.Level]int64
	memoryBytes int64

	broadcaster *Broadcaster
}

// New creates a buffer. A non-positive capacity is a configuration error.
func New(cfg Config) (*Buffer, error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	queueSize := cfg.NotifyQueueSize
	if queueSize <= 0 {
		queueSize = DefaultConfig().NotifyQueueSize
	}

	return &Buffer{
		entries:     make([]*models.LogEntry, cfg.Capacity),
		capacity:    cfg.Capacity,
		levelCounts: make(map[models.Level]int64),
		broadcaster: newBroadcaster(queueSize),
	}, nil
}

// Add stores an entry, assigns it the next monotonic ID and returns that ID.
// If the ring is full the oldest resident entry is evicted and its
// contribution to the statistics retracted in the same operation. Subscribers
// are notified once per successful Add, after statistics are updated.
//
// Malformed fields are normalized rather than rejected: a zero timestamp is
// replaced with the current time.
func (b *Buffer) Add(entry models.LogEntry) int64 {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	b.mu.Lock()

	b.nextID++
	entry.ID = b.nextID

	if b.count == b.capacity {
		evicted := b.entries[b.head]
		b.levelCounts[evicted.Level]--
		if b.levelCounts[evicted.Level] == 0 {
			delete(b.levelCounts, evicted.Level)
		}
		b.memoryBytes -= evicted.EstimatedSize()
	} else {
		b.count++
	}

	stored := entry
	b.entries[b.head] = &stored
	b.head = (b.head + 1) % b.capacity

	b.levelCounts[entry.Level]++
	b.memoryBytes += stored.EstimatedSize()

	// Enqueued under the lock so notification order matches ID order.
	// The enqueue never blocks; overflow drops the oldest notification.
	b.broadcaster.publish(&stored)

	b.mu.Unlock()

	return entry.ID
}

// Clear empties the ring and resets statistics to the empty state. The ID
// counter is not reset, so EntriesBefore cursors held across a clear stay
// valid instead of matching unrelated new entries.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make([]*models.LogEntry, b.capacity)
	b.head = 0
	b.count = 0
	b.levelCounts = make(map[models.Level]int64)
	b.memoryBytes = 0
}

// Stats returns a consistent point-in-time snapshot of the buffer's
// aggregate state.
func (b *Buffer) Stats() models.BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := models.BufferStats{
		TotalEntries:         int64(b.count),
		MaxCapacity:          int64(b.capacity),
		MemoryUsageBytes:     b.memoryBytes,
		EntriesByLevel:       make(map[models.Level]int64, len(b.levelCounts)),
		DroppedNotifications: b.broadcaster.Dropped(),
	}
	for level, n := range b.levelCounts {
		stats.EntriesByLevel[level] = n
	}

	if b.count > 0 {
		oldest := b.entries[b.oldestIndex()].Timestamp
		newest := b.entries[(b.head-1+b.capacity)%b.capacity].Timestamp
		stats.OldestEntry = &oldest
		stats.NewestEntry = &newest
	}

	return stats
}

// Snapshot returns all resident entries in insertion order (oldest first).
// Entries are immutable once stored, so the returned slice shares them.
func (b *Buffer) Snapshot() []*models.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*models.LogEntry, 0, b.count)
	idx := b.oldestIndex()
	for i := 0; i < b.count; i++ {
		out = append(out, b.entries[(idx+i)%b.capacity])
	}
	return out
}

// Subscribe registers a handler invoked once per successful Add. Handlers
// run on the dispatch worker, never on the inserting goroutine, and a panic
// in one handler is isolated from the Add caller and from other handlers.
func (b *Buffer) Subscribe(handler Handler) Subscription {
	return b.broadcaster.Subscribe(handler)
}

// Unsubscribe removes a previously registered handler.
func (b *Buffer) Unsubscribe(sub Subscription) {
	b.broadcaster.Unsubscribe(sub)
}

// Close stops the notification dispatch worker. The buffer remains readable
// and writable, but no further notifications are delivered.
func (b *Buffer) Close() {
	b.broadcaster.close()
}

// Capacity returns the fixed ring capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// oldestIndex returns the slot of the oldest resident entry.
// Caller must hold mu. Only meaningful when count > 0.
func (b *Buffer) oldestIndex() int {
	return (b.head - b.count + b.capacity) % b.capacity
}
