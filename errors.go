// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

package checkedlock

import "errors"

// ErrLockedByCurrentGoroutine is returned by [Mutex.Lock] and
// [Mutex.TryLock] when the calling goroutine already holds the mutex.
// It is returned immediately, without blocking, and leaves the existing
// [Guard] untouched; the caller may keep using it.
var ErrLockedByCurrentGoroutine = errors.New("checkedlock: mutex already locked by the current goroutine")

// ErrWouldBlock is returned by [Mutex.TryLock] when a different goroutine
// holds the mutex.
var ErrWouldBlock = errors.New("checkedlock: mutex is locked by another goroutine")

// ErrPoisoned is a target for [errors.Is]: every *[PoisonError] matches it.
var ErrPoisoned = errors.New("checkedlock: mutex was poisoned")

// A PoisonError reports that a mutex was acquired, or its value accessed,
// while poisoned: a previous holder panicked mid-update, so the protected
// value may violate its invariants.
//
// A PoisonError is advisory. The operation that returned it still
// succeeded, and the accompanying guard or value is valid; the caller may
// inspect or repair the data, clear the flag with [Mutex.ClearPoison], or
// apply one of the blanket policies [IgnorePoison] and [MustNotPoison].
type PoisonError struct{}

func (*PoisonError) Error() string {
	return "checkedlock: mutex was poisoned by a panicking holder"
}

// Is reports whether target is [ErrPoisoned], so that
// errors.Is(err, ErrPoisoned) matches every PoisonError.
func (*PoisonError) Is(target error) bool { return target == ErrPoisoned }

// IgnorePoison converts a poison error into success, passing every other
// result through unchanged:
//
//	g, err := checkedlock.IgnorePoison(m.Lock())
//
// The value may reflect a half-applied update from the panicked holder;
// accepting that risk is the point of calling IgnorePoison.
func IgnorePoison[V any](v V, err error) (V, error) {
	if errors.Is(err, ErrPoisoned) {
		return v, nil
	}
	return v, err
}

// MustNotPoison passes every non-poison result through unchanged and
// panics on poison, for callers that treat a panicked holder as fatal.
func MustNotPoison[V any](v V, err error) (V, error) {
	if errors.Is(err, ErrPoisoned) {
		panic(err)
	}
	return v, err
}
