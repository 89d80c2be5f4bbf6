package buffer

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fidde/logring/pkg/models"
)

// Handler receives one notification per successful Add.
type Handler func(*models.LogEntry)

// Subscription identifies a registered handler.
type Subscription struct {
	ID uuid.UUID
}

// Broadcaster fans out add-notifications to subscribers. Notifications are
// decoupled from the insertion path by a bounded queue and a single dispatch
// worker, so a slow or panicking handler can never block or crash log
// emission. When the queue is full the oldest pending notification is
// dropped; the ring buffer itself remains the source of truth.
type Broadcaster struct {
	mu       sync.RWMutex
	handlers map[uuid.UUID]Handler

	queue   chan *models.LogEntry
	done    chan struct{}
	stopped sync.Once
	dropped atomic.Uint64
}

// newBroadcaster starts the dispatch worker.
func newBroadcaster(queueSize int) *Broadcaster {
	br := &Broadcaster{
		handlers: make(map[uuid.UUID]Handler),
		queue:    make(chan *models.LogEntry, queueSize),
		done:     make(chan struct{}),
	}
	go br.dispatch()
	return br
}

// Subscribe registers a handler and returns its subscription handle.
func (br *Broadcaster) Subscribe(handler Handler) Subscription {
	sub := Subscription{ID: uuid.New()}

	br.mu.Lock()
	br.handlers[sub.ID] = handler
	br.mu.Unlock()

	return sub
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (br *Broadcaster) Unsubscribe(sub Subscription) {
	br.mu.Lock()
	delete(br.handlers, sub.ID)
	br.mu.Unlock()
}

// Dropped returns the number of notifications dropped due to queue overflow.
func (br *Broadcaster) Dropped() uint64 {
	return br.dropped.Load()
}

// publish enqueues a notification without ever blocking the caller. On a
// full queue the oldest pending notification is evicted to make room.
func (br *Broadcaster) publish(entry *models.LogEntry) {
	select {
	case br.queue <- entry:
		return
	default:
	}

	// Queue full: drop the oldest, then retry once. If the worker drained
	// the queue in between, the retry simply succeeds.
	select {
	case <-br.queue:
		br.dropped.Add(1)
	default:
	}
	select {
	case br.queue <- entry:
	default:
		br.dropped.Add(1)
	}
}

// dispatch delivers queued notifications until close.
func (br *Broadcaster) dispatch() {
	for {
		select {
		case entry := <-br.queue:
			br.notify(entry)
		case <-br.done:
			return
		}
	}
}

// notify invokes every handler for one entry, isolating panics per handler.
func (br *Broadcaster) notify(entry *models.LogEntry) {
	br.mu.RLock()
	handlers := make(map[uuid.UUID]Handler, len(br.handlers))
	for id, h := range br.handlers {
		handlers[id] = h
	}
	br.mu.RUnlock()

	for id, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("logring: subscriber %s panicked: %v", id, r)
				}
			}()
			handler(entry)
		}()
	}
}

// close stops the dispatch worker. Pending notifications are discarded.
func (br *Broadcaster) close() {
	br.stopped.Do(func() {
		close(br.done)
	})
}
