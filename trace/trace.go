// Package trace implements the history extension described in spec.md §4.6: TraceModel wraps
// a model.Model with named commit/reset checkpoints and an undo/redo ring buffer over raw
// mutations. It is grounded on the teacher's SchemaMigrationHelper (core/schema/migration.go),
// a fluent helper that records forward/rollback change pairs and exposes them via Changes();
// commit/reset play that helper's named-checkpoint role, while undo/redo are the ring-buffer
// analogue of its per-change rollback list, scoped to field mutations instead of schema edits.
package trace

import (
	"fmt"
	"sync"

	"github.com/kowalski-labs/tyshemo/model"
)

// mutation is one recorded field write, enough to reverse (old) or reapply (new) it.
type mutation struct {
	path     string
	old, new any
}

// defaultHistoryLimit bounds the undo ring buffer so a long-lived model doesn't retain
// every mutation it has ever seen.
const defaultHistoryLimit = 200

// TraceModel adds commit/reset/undo/redo/clear to a model.Model, per spec.md §4.6.
type TraceModel struct {
	*model.Model

	mu         sync.Mutex
	history    []mutation
	cursor     int // number of applied mutations: Undo reverts history[cursor-1], Redo reapplies history[cursor]
	snapshots  map[string]map[string]any
	limit      int
	recording  bool
	unsubscribe func()
}

// Option configures a new TraceModel.
type Option func(*TraceModel)

// WithHistoryLimit overrides the default undo ring-buffer size.
func WithHistoryLimit(n int) Option {
	return func(t *TraceModel) {
		if n > 0 {
			t.limit = n
		}
	}
}

// New wraps m, subscribing to every field write so it can build the undo/redo history.
func New(m *model.Model, opts ...Option) *TraceModel {
	t := &TraceModel{
		Model:     m,
		snapshots: map[string]map[string]any{},
		limit:     defaultHistoryLimit,
		recording: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.unsubscribe = m.Watch("*", t.record)
	return t
}

// Close stops recording further mutations into the history. A TraceModel that has been
// Closed can still Commit/Reset, but Undo/Redo no longer see new writes.
func (t *TraceModel) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

func (t *TraceModel) record(path string, value, old any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.recording {
		return
	}

	// A write made while cursor < len(history) (i.e. after one or more Undo calls)
	// discards the stale redo tail, per the usual undo-stack semantics: a fresh edit
	// invalidates history that was only reachable via Redo.
	t.history = t.history[:t.cursor]
	t.history = append(t.history, mutation{path: path, old: old, new: value})
	if len(t.history) > t.limit {
		overflow := len(t.history) - t.limit
		t.history = t.history[overflow:]
	}
	t.cursor = len(t.history)
}

// Commit snapshots the model's current raw state under tag, so a later Reset(tag) can
// return to exactly this state.
func (t *TraceModel) Commit(tag string) {
	snap := t.Model.Raw()
	t.mu.Lock()
	t.snapshots[tag] = snap
	t.mu.Unlock()
}

// Reset restores the model to the state captured by the most recent Commit(tag), per
// spec.md §4.6. Restore's writes reach the history like any other writes (discarding any
// redo tail), so a further Undo steps back from the reset state field by field.
func (t *TraceModel) Reset(tag string) error {
	t.mu.Lock()
	snap, ok := t.snapshots[tag]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("trace: no commit named %q", tag)
	}
	return t.Model.Restore(snap)
}

// Undo reverts the most recent recorded mutation, returning false if there is nothing left
// to undo.
func (t *TraceModel) Undo() bool {
	t.mu.Lock()
	if t.cursor == 0 {
		t.mu.Unlock()
		return false
	}
	t.cursor--
	m := t.history[t.cursor]
	t.recording = false
	t.mu.Unlock()

	t.Model.Set(m.path, m.old)

	t.mu.Lock()
	t.recording = true
	t.mu.Unlock()
	return true
}

// Redo reapplies the mutation most recently undone, returning false if there is nothing to
// redo.
func (t *TraceModel) Redo() bool {
	t.mu.Lock()
	if t.cursor >= len(t.history) {
		t.mu.Unlock()
		return false
	}
	m := t.history[t.cursor]
	t.cursor++
	t.recording = false
	t.mu.Unlock()

	t.Model.Set(m.path, m.new)

	t.mu.Lock()
	t.recording = true
	t.mu.Unlock()
	return true
}

// Clear discards the undo/redo history without affecting any named commits.
func (t *TraceModel) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = nil
	t.cursor = 0
}
