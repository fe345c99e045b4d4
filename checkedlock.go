// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

package checkedlock

import (
	"sync"
	"sync/atomic"

	"github.com/checkedlock/checkedlock/internal/heldlocks"
	"github.com/checkedlock/checkedlock/internal/lockid"
)

// A Mutex is a mutual-exclusion lock protecting a value of type T.
// Unlike [sync.Mutex], an attempt by a goroutine to acquire a Mutex it
// already holds fails immediately with [ErrLockedByCurrentGoroutine]
// instead of deadlocking.
//
// Each Mutex is assigned a process-wide unique identity at construction,
// which is how per-goroutine held-lock tracking tells mutexes apart.
// The zero value therefore has no identity and is unusable; create a
// Mutex with [New]. A Mutex must not be copied after first use.
type Mutex[T any] struct {
	id       lockid.ID
	mu       sync.Mutex
	poisoned atomic.Bool
	value    T
}

// New returns a new unlocked Mutex protecting value.
func New[T any](value T) *Mutex[T] {
	return &Mutex[T]{id: lockid.Next(), value: value}
}

func (m *Mutex[T]) checkInit() {
	if m.id == 0 {
		panic("checkedlock: use of zero Mutex; use checkedlock.New")
	}
}

// Lock acquires m, blocking while another goroutine holds it.
//
// If the calling goroutine already holds m, Lock returns
// [ErrLockedByCurrentGoroutine] immediately, without blocking, and the
// existing guard is unaffected.
//
// If m is poisoned, Lock still acquires it: the returned guard is valid
// and the error is a *[PoisonError]. Callers that do not care about poison
// can write:
//
//	g, err := checkedlock.IgnorePoison(m.Lock())
func (m *Mutex[T]) Lock() (*Guard[T], error) {
	m.checkInit()
	if !heldlocks.RegisterLocked(m.id) {
		return nil, ErrLockedByCurrentGoroutine
	}
	m.mu.Lock()
	g := &Guard[T]{m: m}
	if m.poisoned.Load() {
		return g, &PoisonError{}
	}
	return g, nil
}

// TryLock attempts to acquire m without blocking.
//
// If the calling goroutine already holds m, TryLock returns
// [ErrLockedByCurrentGoroutine]; if a different goroutine holds m, it
// returns [ErrWouldBlock]. In both cases no held-lock state changes.
// On a poisoned acquisition the guard is valid and the error is a
// *[PoisonError], as for [Mutex.Lock].
func (m *Mutex[T]) TryLock() (*Guard[T], error) {
	m.checkInit()
	// Checked before touching the underlying TryLock: sync.Mutex cannot
	// tell "locked by me" apart from "locked by someone else".
	if heldlocks.LockedByCurrentGoroutine(m.id) {
		return nil, ErrLockedByCurrentGoroutine
	}
	if !m.mu.TryLock() {
		return nil, ErrWouldBlock
	}
	// The current goroutine did not hold m above and is the only one able
	// to add m to its held set, so this registration always succeeds.
	heldlocks.RegisterLocked(m.id)
	g := &Guard[T]{m: m}
	if m.poisoned.Load() {
		return g, &PoisonError{}
	}
	return g, nil
}

// WithLock acquires m, runs fn with exclusive access to the protected
// value, and releases m on all exit paths. If fn panics, m is poisoned
// before the panic resumes.
//
// The returned error is [ErrLockedByCurrentGoroutine] if the calling
// goroutine already holds m (fn does not run), or a *[PoisonError] if m
// was acquired poisoned (fn still runs, on the possibly inconsistent
// value), or nil.
func (m *Mutex[T]) WithLock(fn func(value *T)) error {
	g, err := m.Lock()
	if g == nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			m.poisoned.Store(true)
			g.Unlock()
			panic(r)
		}
		g.Unlock()
	}()
	fn(&m.value)
	return err
}

// LockedByCurrentGoroutine reports whether the calling goroutine holds m.
func (m *Mutex[T]) LockedByCurrentGoroutine() bool {
	return m.id != 0 && heldlocks.LockedByCurrentGoroutine(m.id)
}

// IsPoisoned reports whether m is poisoned. If other goroutines are
// active, m may become poisoned or have its poison cleared at any time,
// so the result should not be used for correctness decisions.
func (m *Mutex[T]) IsPoisoned() bool { return m.poisoned.Load() }

// ClearPoison removes the poison flag, so future acquisitions succeed
// without a *[PoisonError]. Poison and held-lock tracking are independent:
// clearing poison never affects who holds m.
func (m *Mutex[T]) ClearPoison() { m.poisoned.Store(false) }

// IntoInner returns the protected value without locking.
//
// The caller must own m exclusively: no other goroutine may use m during
// or after the call, and m must not be used again. This is the Go
// rendition of consuming the mutex, which the type system cannot enforce.
// Held-lock tracking is bypassed entirely; no guard is created. If m is
// poisoned, the value is still returned, wrapped in a *[PoisonError].
func (m *Mutex[T]) IntoInner() (T, error) {
	if m.poisoned.Load() {
		return m.value, &PoisonError{}
	}
	return m.value, nil
}

// GetMut returns a pointer to the protected value without locking.
//
// The caller must hold the only reference to m for as long as the pointer
// is in use; exclusivity already rules out concurrent access, which is why
// no guard is created and held-lock tracking is bypassed. If m is
// poisoned, the pointer is still returned, wrapped in a *[PoisonError].
func (m *Mutex[T]) GetMut() (*T, error) {
	if m.poisoned.Load() {
		return &m.value, &PoisonError{}
	}
	return &m.value, nil
}

// A Guard represents one held acquisition of a [Mutex]. It is created only
// by a successful [Mutex.Lock] or [Mutex.TryLock] and must be released
// exactly once, by the goroutine that acquired it, typically with defer:
//
//	g, err := m.Lock()
//	if err != nil {
//		// handle re-entry or poison
//	}
//	defer g.Unlock()
//
// A Guard is not transferable across goroutines: releasing it elsewhere
// would desynchronize the acquiring goroutine's held-lock set, and Unlock
// panics if it detects that.
type Guard[T any] struct {
	m        *Mutex[T]
	unlocked bool
}

// Value returns a pointer to the protected value. It must not be called
// after [Guard.Unlock]; doing so panics rather than handing out an
// unsynchronized pointer.
func (g *Guard[T]) Value() *T {
	if g.unlocked {
		panic("checkedlock: use of guard after Unlock")
	}
	return &g.m.value
}

// Poison marks the mutex poisoned while still holding it, for guard-style
// callers that recover their own panics mid-update. The flag takes effect
// for acquisitions after the guard is released.
func (g *Guard[T]) Poison() {
	if g.unlocked {
		panic("checkedlock: use of guard after Unlock")
	}
	g.m.poisoned.Store(true)
}

// Unlock releases the mutex: the lock's identity is removed from the
// calling goroutine's held set, then the underlying mutex is unlocked.
//
// Unlock panics if the guard was already unlocked, or if the calling
// goroutine does not hold the lock. The latter means the guard crossed
// goroutines since acquisition, a bug in the caller that cannot be
// reported as an error because both goroutines' held-lock sets are
// already wrong.
func (g *Guard[T]) Unlock() {
	if g.unlocked {
		panic("checkedlock: guard already unlocked")
	}
	g.unlocked = true
	if !heldlocks.RegisterUnlocked(g.m.id) {
		panic("checkedlock: guard released by a goroutine that does not hold the lock")
	}
	g.m.mu.Unlock()
}
