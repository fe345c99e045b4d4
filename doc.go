// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package checkedlock provides a mutual-exclusion lock that detects a
// goroutine re-acquiring a lock it already holds and reports it as an
// ordinary error instead of deadlocking.
//
// A plain [sync.Mutex] cannot tell "locked by me" from "locked by someone
// else": a goroutine that locks a mutex twice blocks forever. A [Mutex]
// tracks, per goroutine, the set of locks that goroutine currently holds,
// so the second acquisition fails fast with
// [ErrLockedByCurrentGoroutine] and the program can recover:
//
//	m := checkedlock.New(map[string]int{})
//	g, err := m.Lock()
//	if err != nil {
//		// Re-entry or poison; see below.
//	}
//	defer g.Unlock()
//	(*g.Value())["x"] = 1
//
// Only same-lock re-entry is detected. This is not a lock-ordering or
// deadlock-cycle detector, and the mutex is exclusive only: there is no
// reader-writer or upgradeable variant, and no fairness guarantee beyond
// that of the underlying [sync.Mutex].
//
// # Poison
//
// A mutex becomes poisoned when a holder panics partway through an update,
// flagging that the protected value may violate its invariants. Poison
// never prevents acquisition: [Mutex.Lock] and [Mutex.TryLock] on a
// poisoned mutex still succeed and return a valid [Guard], but wrap it in a
// *[PoisonError]. Callers choose a policy: inspect and repair the value,
// discard the flag with [IgnorePoison], or escalate with [MustNotPoison].
//
// Go offers no way for a deferred [Guard.Unlock] to observe that a panic is
// unwinding, so poison is set automatically only by the closure API
// [Mutex.WithLock], which releases the lock on all exit paths and poisons
// the mutex if the closure panics. Guard-style callers that recover their
// own panics can mark the mutex with [Guard.Poison] explicitly.
package checkedlock
