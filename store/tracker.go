package store

import "sync"

// tracker records which paths are read during a computed field's evaluation, the
// dependency-tracking mechanism spec.md §4.4/§5 requires for reactive recomputation:
// reading a path while a frame is active adds that path to the frame's dependency set,
// without the reader needing to declare its dependencies up front.
type tracker struct {
	mu    sync.Mutex
	stack []*frame
}

type frame struct {
	deps map[string]struct{}
}

func newTracker() *tracker {
	return &tracker{}
}

// push starts a new dependency-collection frame.
func (t *tracker) push() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stack = append(t.stack, &frame{deps: map[string]struct{}{}})
}

// pop ends the current frame and returns the set of paths it observed.
func (t *tracker) pop() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.stack)
	if n == 0 {
		return nil
	}
	f := t.stack[n-1]
	t.stack = t.stack[:n-1]

	deps := make([]string, 0, len(f.deps))
	for p := range f.deps {
		deps = append(deps, p)
	}
	return deps
}

// record adds path to every active frame, so a dependency read three calls deep into a
// computed field's evaluation is still attributed to the outermost frame as well as any
// nested one.
func (t *tracker) record(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range t.stack {
		f.deps[path] = struct{}{}
	}
}

// active reports whether any frame is currently collecting dependencies.
func (t *tracker) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack) > 0
}
