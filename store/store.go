// Package store implements the reactive key/path store described in spec.md §4.4: a nested
// map addressed by dot-paths, with dependency tracking for computed fields and ordered
// watcher dispatch for change notification. It is the teacher's event-emitting collection
// (core/persistence/events.go, core/persistence/collection-events.go) turned inside out: the
// teacher wraps CRUD operations with start/success/failure events over a shared bus; Store
// wraps path reads/writes the same way, adding the per-path watcher ordering and dependency
// tracking a document store doesn't need but a reactive model does.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type watcherEntry struct {
	id string
	cb func(path string, value, old any)
}

// Store is a reactive map[string]any addressed by dot-separated paths (e.g. "profile.name").
// It is safe for concurrent use: every operation is guarded by mu, per spec.md §5's
// requirement that concurrent embedder access to an otherwise single-threaded cooperative
// model be explicitly serialized (mirroring the teacher's subMu pattern in
// core/persistence/collection.go).
type Store struct {
	mu   sync.Mutex
	root map[string]any

	watchers    map[string][]watcherEntry
	watcherKeys []string // registration order of distinct watched paths, for iteration stability

	tracker *tracker
	bus     *events.TypedEventBus[ChangeEvent]
	logger  *zap.Logger

	silent    bool
	batching  bool
	pending   map[string]changedValue
	pendOrder []string
}

type changedValue struct {
	value, old any
}

// Option configures a new Store.
type Option func(*Store)

// WithLogger injects a *zap.Logger; a nil logger is replaced with zap.NewNop(), per
// SPEC_FULL.md §4.0's ambient logging contract.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds an empty Store and its internal event bus. The bus's construction mirrors
// core/persistence/persistence.go's NewPersistence, which fails fast if the underlying
// go-events bus cannot be constructed; Store does the same via a panic, since
// events.DefaultConfig() failing indicates a programming error (a bad default config),
// not a runtime condition callers should be expected to handle.
func New(opts ...Option) *Store {
	s := &Store{
		root:     map[string]any{},
		watchers: map[string][]watcherEntry{},
		tracker:  newTracker(),
		logger:   zap.NewNop(),
		pending:  map[string]changedValue{},
	}
	bus, err := newBus()
	if err != nil {
		panic("store: constructing event bus: " + err.Error())
	}
	s.bus = bus
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get resolves path against the store's data, returning nil if any segment is absent. If
// called while a dependency-tracking frame is active (see Track), the path is recorded as a
// dependency of the computation currently running.
func (s *Store) Get(path string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker.active() {
		s.tracker.record(path)
	}
	return getPath(s.root, splitPath(path))
}

func getPath(node any, segs []string) any {
	if len(segs) == 0 {
		return node
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	child, exists := m[segs[0]]
	if !exists {
		return nil
	}
	return getPath(child, segs[1:])
}

// Set writes value at path, creating intermediate maps as needed, and dispatches watchers
// for path unless the store is currently silent or batching (in which case the dispatch is
// suppressed or deferred respectively; see Silent and Batch).
func (s *Store) Set(path string, value any) {
	s.mu.Lock()
	old := getPath(s.root, splitPath(path))
	setPath(s.root, splitPath(path), value)
	dispatchNow, snapshot := s.recordChange(path, value, old)
	s.mu.Unlock()
	if dispatchNow {
		s.runDispatch(snapshot)
	}
}

// Update reads path, passes its current value to fn, and writes fn's return value back,
// dispatching watchers exactly like Set.
func (s *Store) Update(path string, fn func(old any) any) {
	s.mu.Lock()
	old := getPath(s.root, splitPath(path))
	next := fn(old)
	setPath(s.root, splitPath(path), next)
	dispatchNow, snapshot := s.recordChange(path, next, old)
	s.mu.Unlock()
	if dispatchNow {
		s.runDispatch(snapshot)
	}
}

// Del removes path from the store, dispatching watchers with a nil new value.
func (s *Store) Del(path string) {
	s.mu.Lock()
	segs := splitPath(path)
	old := getPath(s.root, segs)
	delPath(s.root, segs)
	dispatchNow, snapshot := s.recordChange(path, nil, old)
	s.mu.Unlock()
	if dispatchNow {
		s.runDispatch(snapshot)
	}
}

func setPath(node map[string]any, segs []string, value any) {
	if len(segs) == 1 {
		node[segs[0]] = value
		return
	}
	child, ok := node[segs[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		node[segs[0]] = child
	}
	setPath(child, segs[1:], value)
}

func delPath(node map[string]any, segs []string) {
	if len(segs) == 1 {
		delete(node, segs[0])
		return
	}
	child, ok := node[segs[0]].(map[string]any)
	if !ok {
		return
	}
	delPath(child, segs[1:])
}

// dispatchSnapshot carries everything runDispatch needs to notify watchers for one changed
// path, captured while mu is held so the callbacks themselves can run lock-free (a watcher
// is free to call back into the Store, e.g. to read a sibling path or write another one,
// without deadlocking on a non-reentrant mutex).
type dispatchSnapshot struct {
	path       string
	value, old any
	specific   []watcherEntry
	wildcard   []watcherEntry
}

// recordChange must be called with mu held. It either returns a snapshot to dispatch
// immediately, defers the change to the active batch (returning dispatchNow=false), or does
// nothing if the store is silent.
func (s *Store) recordChange(path string, value, old any) (dispatchNow bool, snap dispatchSnapshot) {
	if s.silent {
		return false, dispatchSnapshot{}
	}
	if s.batching {
		if _, seen := s.pending[path]; !seen {
			s.pendOrder = append(s.pendOrder, path)
		}
		s.pending[path] = changedValue{value: value, old: old}
		return false, dispatchSnapshot{}
	}
	return true, s.snapshotFor(path, value, old)
}

// snapshotFor must be called with mu held.
func (s *Store) snapshotFor(path string, value, old any) dispatchSnapshot {
	specific := append([]watcherEntry(nil), s.watchers[path]...)
	wildcard := append([]watcherEntry(nil), s.watchers["*"]...)
	return dispatchSnapshot{path: path, value: value, old: old, specific: specific, wildcard: wildcard}
}

// runDispatch notifies specific-path watchers before wildcard ("*") watchers, per spec.md
// §5's ordering guarantee, then emits the committed change event on the bus. It must be
// called without mu held.
func (s *Store) runDispatch(snap dispatchSnapshot) {
	for _, w := range snap.specific {
		w.cb(snap.path, snap.value, snap.old)
	}
	for _, w := range snap.wildcard {
		w.cb(snap.path, snap.value, snap.old)
	}
	s.emit(ChangeCommitted, snap.path, snap.value, snap.old)
	s.logger.Debug("store.dispatch", zap.String("path", snap.path))
}

// Silent runs fn with watcher dispatch and bus emission fully suppressed, for bulk
// initialization writes that should not trigger reactive side effects.
func (s *Store) Silent(fn func()) {
	s.mu.Lock()
	prev := s.silent
	s.silent = true
	s.mu.Unlock()

	fn()

	s.mu.Lock()
	s.silent = prev
	s.mu.Unlock()
}

// Batch runs fn, collecting every path changed during it, and dispatches each changed path
// exactly once after fn returns (writes-then-watchers, deduplicated per turn), in the order
// each path was first touched, per spec.md §5.
func (s *Store) Batch(fn func()) {
	s.mu.Lock()
	s.batching = true
	s.pending = map[string]changedValue{}
	s.pendOrder = nil
	s.mu.Unlock()

	fn()

	s.mu.Lock()
	s.batching = false
	order := s.pendOrder
	pending := s.pending
	s.pending = map[string]changedValue{}
	s.pendOrder = nil
	snapshots := make([]dispatchSnapshot, 0, len(order))
	for _, path := range order {
		cv := pending[path]
		snapshots = append(snapshots, s.snapshotFor(path, cv.value, cv.old))
	}
	s.mu.Unlock()

	for _, snap := range snapshots {
		s.runDispatch(snap)
	}
}

// Watch registers cb to run whenever path changes, or every path if path is "*". It returns
// an unsubscribe function, mirroring the teacher's RegisterSubscription/Unsubscribe pair
// (core/persistence/collection.go).
func (s *Store) Watch(path string, cb func(path string, value, old any)) (unsubscribe func()) {
	id := uuid.NewString()
	s.mu.Lock()
	s.watchers[path] = append(s.watchers[path], watcherEntry{id: id, cb: cb})
	s.mu.Unlock()

	return func() { s.unwatch(path, id) }
}

func (s *Store) unwatch(path, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.watchers[path]
	for i, w := range entries {
		if w.id == id {
			s.watchers[path] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Track runs fn with dependency tracking active, returning fn's result alongside the sorted,
// deduplicated list of paths fn read via Get, for use by computed fields that need to know
// which paths should trigger their own recomputation (spec.md §4.4/§5).
func (s *Store) Track(fn func() any) (value any, deps []string) {
	s.tracker.push()
	value = fn()
	deps = s.tracker.pop()
	sort.Strings(deps)
	return value, deps
}
