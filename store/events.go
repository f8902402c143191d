package store

import (
	"context"
	"time"

	"github.com/asaidimu/go-events"
)

// ChangeEventType tags the stage of a write, mirroring the teacher's
// PersistenceEventType start/success/failed triad (core/persistence/events.go), narrowed to
// the Store's single write operation.
type ChangeEventType string

const (
	// ChangeStart names the before-write stage. Store's write methods emit only
	// ChangeCommitted, so no event of this type is published on the bus.
	ChangeStart ChangeEventType = "store.change.start"
	// ChangeCommitted is emitted after a write is applied and watchers have been
	// dispatched.
	ChangeCommitted ChangeEventType = "store.change.committed"
)

// ChangeEvent is the payload carried on the Store's outward-observable event bus, for
// embedders that want a single subscribable stream instead of per-path Watch callbacks.
type ChangeEvent struct {
	Type      ChangeEventType
	Path      string
	Value     any
	Old       any
	Timestamp time.Time
}

func newBus() (*events.TypedEventBus[ChangeEvent], error) {
	return events.NewTypedEventBus[ChangeEvent](events.DefaultConfig())
}

// Subscribe registers fn against the Store's change-event bus for every write,
// independent of path, and returns an unsubscribe function. This mirrors the teacher's
// RegisterSubscription (core/persistence/collection.go) at the whole-store granularity;
// Watch (in store.go) is the per-path analogue used by computed fields and UI bindings.
func (s *Store) Subscribe(fn func(ctx context.Context, event ChangeEvent) error) func() {
	return s.bus.Subscribe(string(ChangeCommitted), fn)
}

func (s *Store) emit(eventType ChangeEventType, path string, value, old any) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(string(eventType), ChangeEvent{
		Type: eventType, Path: path, Value: value, Old: old, Timestamp: time.Now(),
	})
}
