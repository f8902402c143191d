package types

import (
	"github.com/kowalski-labs/tyshemo/proto"
	"github.com/kowalski-labs/tyshemo/tyerror"
)

// Ty is the package's front door, per spec.md §6: a namespace of entry points onto the
// Assert/Catch/Trace/Track family plus the proto registry's Is helper, so a caller who only
// needs the top-level API doesn't have to know which type wraps which.
var Ty tyFacade

type tyFacade struct{}

// Expect begins a panic-based assertion: Ty.Expect(v).To.Match(pattern) panics with a
// *tyerror.TyError if v does not match pattern.
func (tyFacade) Expect(value any) expectation {
	return expectation{To: matcher{value: value}}
}

// Catch begins a non-throwing assertion: Ty.Catch(v).By(pattern) returns the *tyerror.TyError
// (or nil) instead of panicking.
func (tyFacade) Catch(value any) catcher {
	return catcher{value: value}
}

// Trace begins a synchronous deferred assertion: the match runs immediately, and the
// resulting Deferred exposes the outcome via Catch(fn), mirroring the "already settled
// promise" shape described in spec.md §6 for synchronous callers.
func (tyFacade) Trace(value any) tracer {
	return tracer{value: value}
}

// Track begins an asynchronous deferred assertion: the match runs in a goroutine, and the
// resulting AsyncDeferred's Catch(fn) blocks until it completes, mirroring spec.md §6's
// Track entry point for patterns built on Asynch.
func (tyFacade) Track(value any) tracker {
	return tracker{value: value}
}

// Is exposes the proto registry's triadic helper directly off the facade, so callers don't
// need to import package proto for simple token checks.
func (tyFacade) Is(token proto.Token) proto.Helper {
	return proto.Is(token)
}

// expectation holds To, a grammatical pivot so Ty.Expect(v).To.Match(pattern) reads as
// "expect value to match pattern".
type expectation struct {
	To matcher
}

type matcher struct {
	value any
}

// Match panics with a *tyerror.TyError if value does not match pattern.
func (m matcher) Match(pattern Pattern) {
	New("Expect", pattern).Assert(m.value)
}

type catcher struct {
	value any
}

// By returns the *tyerror.TyError produced by matching value against pattern, or nil.
func (c catcher) By(pattern Pattern) *tyerror.TyError {
	return New("Catch", pattern).Catch(c.value)
}

type tracer struct {
	value any
}

// By matches value against pattern immediately and returns a settled Deferred.
func (t tracer) By(pattern Pattern) *Deferred {
	return &Deferred{err: New("Trace", pattern).Catch(t.value)}
}

// Deferred wraps an already-computed match outcome. It exists so Trace's call site reads
// like Track's (a deferred handle with a Catch continuation) even though no concurrency is
// involved.
type Deferred struct {
	err *tyerror.TyError
}

// Catch invokes fn with the match error if the match failed; it is a no-op on success.
func (d *Deferred) Catch(fn func(*tyerror.TyError)) {
	if d.err != nil {
		fn(d.err)
	}
}

type tracker struct {
	value any
}

// By matches value against pattern in a background goroutine and returns a handle whose
// Catch blocks until the match completes.
func (t tracker) By(pattern Pattern) *AsyncDeferred {
	done := make(chan *tyerror.TyError, 1)
	go func() {
		done <- New("Track", pattern).Catch(t.value)
	}()
	return &AsyncDeferred{done: done}
}

// AsyncDeferred wraps a match running in a goroutine, per spec.md §6's Track semantics for
// patterns built on Asynch rules.
type AsyncDeferred struct {
	done chan *tyerror.TyError
}

// Catch blocks until the match completes and invokes fn with the error if it failed. It is
// a no-op on success.
func (a *AsyncDeferred) Catch(fn func(*tyerror.TyError)) {
	if err := <-a.done; err != nil {
		fn(err)
	}
}
