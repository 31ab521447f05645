// Package event is the in-memory fanout for lifecycle events. It decouples
// the engine from whatever wants to observe it (admin dashboards, logging);
// no delivery transport lives here.
package event

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Lifecycle event types.
const (
	TypeGameCreated           = "game.created"
	TypeGameUpdated           = "game.updated"
	TypeGameStatusChanged     = "game.status_changed"
	TypeGameCancelled         = "game.cancelled"
	TypeGameDeleted           = "game.deleted"
	TypeRegistrationCreated   = "registration.created"
	TypeRegistrationCancelled = "registration.cancelled"
	TypeRegistrationPromoted  = "registration.promoted"
	TypeTeamsAssigned         = "teams.assigned"
	TypeResultRecorded        = "result.recorded"
)

// Event is a lightweight in-memory signal.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop events (bounded backpressure).
type Event struct {
	Type   string
	GameID uuid.UUID
	Time   time.Time
	Data   any
}

type Bus interface {
	Publish(e Event)
	// Subscribe registers interest in one game's events, or in every game's
	// when gameID is uuid.Nil. The returned func releases the subscription.
	Subscribe(gameID uuid.UUID, buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus. It owns no background
// goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]*subscriber{}}
}

type subscriber struct {
	gameID uuid.UUID
	ch     chan Event
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]*subscriber
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	// Snapshot matching subscribers so Publish doesn't hold locks while
	// attempting sends.
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.gameID == uuid.Nil || sub.gameID == e.GameID {
			chs = append(chs, sub.ch)
		}
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery; slow subscribers drop. If a subscriber
		// unsubscribes concurrently and the channel closes, recover from the
		// send panic.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(gameID uuid.UUID, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = &subscriber{gameID: gameID, ch: ch}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}
