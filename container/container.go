// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package container provides small generic ownership containers with a
// uniform access interface, so callers can be written against [Container]
// and have the synchronization discipline chosen by whoever constructs
// the value: none ([Box]), a reader-writer lock ([Sync]), or a
// goroutine-checked mutex ([Checked]).
package container

import (
	"sync"

	"github.com/checkedlock/checkedlock"
)

// A Container provides read and write access to a value of type T under
// whatever ownership discipline the implementation enforces.
type Container[T any] interface {
	// View calls fn with the current value, for reading.
	View(fn func(value T)) error

	// Update calls fn with exclusive access to the value.
	Update(fn func(value *T)) error
}

var (
	_ Container[int] = (*Box[int])(nil)
	_ Container[int] = (*Sync[int])(nil)
	_ Container[int] = (*Checked[int])(nil)
)

// Box is the trivial container: it owns its value outright and performs no
// synchronization. It is not safe for concurrent use. View and Update
// always return nil.
type Box[T any] struct {
	value T
}

// NewBox returns a Box owning value.
func NewBox[T any](value T) *Box[T] { return &Box[T]{value: value} }

func (b *Box[T]) View(fn func(T)) error    { fn(b.value); return nil }
func (b *Box[T]) Update(fn func(*T)) error { fn(&b.value); return nil }

// Sync guards its value with a [sync.RWMutex]. Concurrent use is safe, but
// re-entrant use from inside fn deadlocks, as with any plain Go lock.
// View and Update always return nil.
type Sync[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewSync returns a Sync owning value.
func NewSync[T any](value T) *Sync[T] { return &Sync[T]{value: value} }

func (s *Sync[T]) View(fn func(T)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.value)
	return nil
}

func (s *Sync[T]) Update(fn func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.value)
	return nil
}

// Checked guards its value with a [checkedlock.Mutex]. Unlike [Sync], a
// re-entrant View or Update from the goroutine already inside the
// container reports [checkedlock.ErrLockedByCurrentGoroutine] instead of
// deadlocking, and an fn that panics poisons the container: later calls
// still run fn but additionally return a poison error.
type Checked[T any] struct {
	mu *checkedlock.Mutex[T]
}

// NewChecked returns a Checked owning value.
func NewChecked[T any](value T) *Checked[T] {
	return &Checked[T]{mu: checkedlock.New(value)}
}

func (c *Checked[T]) View(fn func(T)) error {
	return c.mu.WithLock(func(v *T) { fn(*v) })
}

func (c *Checked[T]) Update(fn func(*T)) error {
	return c.mu.WithLock(fn)
}

// ClearPoison removes the container's poison flag. See
// [checkedlock.Mutex.ClearPoison].
func (c *Checked[T]) ClearPoison() { c.mu.ClearPoison() }
