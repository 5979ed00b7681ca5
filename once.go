// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package mk

import (
	"sync"
	"sync/atomic"
)

// onceFallible runs a closure at most once successfully: a failed
// attempt does not mark the latch done, so a later caller may retry
// it. This is the one place the original Rust build (suru) hand-rolled
// its own synchronization primitive rather than reaching for a crate,
// so it is reproduced here directly rather than wrapped around
// sync.Once, which has no notion of a fallible attempt (spec §4.4's
// "a node is attempted at most once while it is in flight, but a
// failed attempt does not poison it for a future run" is grounded on
// _examples/original_source/src/once_fallible.rs's OnceFallible).
type onceFallible struct {
	mu   sync.Mutex
	done atomic.Bool
}

// tryRun attempts fn if the latch isn't already done and no other
// goroutine currently holds it. It reports whether fn ran at all
// (false means another goroutine is mid-attempt or it already
// succeeded) and, if it ran, whether fn returned a nil error.
func (o *onceFallible) tryRun(fn func() error) (ran bool, err error) {
	if o.done.Load() {
		return false, nil
	}
	if !o.mu.TryLock() {
		return false, nil
	}
	defer o.mu.Unlock()

	if o.done.Load() {
		return false, nil
	}
	err = fn()
	if err == nil {
		o.done.Store(true)
	}
	return true, err
}

// isDone reports whether fn has already completed successfully.
func (o *onceFallible) isDone() bool {
	return o.done.Load()
}
