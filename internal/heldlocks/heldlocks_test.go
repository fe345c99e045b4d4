// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

package heldlocks

import (
	"slices"
	"testing"

	"github.com/checkedlock/checkedlock/internal/lockid"
)

// tableEntries counts goroutines with a live registry entry.
func tableEntries() int {
	n := 0
	for i := range shards {
		shards[i].mu.Lock()
		n += len(shards[i].sets)
		shards[i].mu.Unlock()
	}
	return n
}

func TestRegisterContract(t *testing.T) {
	id := lockid.Next()
	if LockedByCurrentGoroutine(id) {
		t.Fatal("fresh id reported as held")
	}
	if !RegisterLocked(id) {
		t.Fatal("first RegisterLocked = false")
	}
	if RegisterLocked(id) {
		t.Fatal("second RegisterLocked = true")
	}
	if !LockedByCurrentGoroutine(id) {
		t.Fatal("held id not reported as held")
	}
	if !RegisterUnlocked(id) {
		t.Fatal("RegisterUnlocked of held id = false")
	}
	if LockedByCurrentGoroutine(id) {
		t.Fatal("id still reported as held after RegisterUnlocked")
	}
	if RegisterUnlocked(id) {
		t.Fatal("RegisterUnlocked of unheld id = true")
	}
}

func TestPerGoroutineIsolation(t *testing.T) {
	id := lockid.Next()
	if !RegisterLocked(id) {
		t.Fatal("RegisterLocked = false")
	}
	defer RegisterUnlocked(id)

	res := make(chan bool, 3)
	go func() {
		res <- LockedByCurrentGoroutine(id) // false: held by the test goroutine, not this one
		res <- RegisterLocked(id)           // true: this goroutine's set is independent
		res <- RegisterUnlocked(id)
	}()
	if <-res {
		t.Error("other goroutine sees the id as held")
	}
	if !<-res {
		t.Error("other goroutine could not register the same id")
	}
	if !<-res {
		t.Error("other goroutine could not unregister the id")
	}
	if !LockedByCurrentGoroutine(id) {
		t.Error("test goroutine's registration was lost")
	}
}

// Registering more IDs than the registry's inline tier holds, then
// unregistering in FIFO and LIFO order, must leave nothing held.
func TestManyLocksAnyUnlockOrder(t *testing.T) {
	const n = 10
	for _, reverse := range []bool{false, true} {
		held := make([]lockid.ID, n)
		for i := range held {
			held[i] = lockid.Next()
			if !RegisterLocked(held[i]) {
				t.Fatalf("RegisterLocked(%d) = false", held[i])
			}
		}
		order := slices.Clone(held)
		if reverse {
			slices.Reverse(order)
		}
		for _, id := range order {
			if !RegisterUnlocked(id) {
				t.Fatalf("RegisterUnlocked(%d) = false (reverse=%v)", id, reverse)
			}
		}
		for _, id := range held {
			if LockedByCurrentGoroutine(id) {
				t.Errorf("id %d still held (reverse=%v)", id, reverse)
			}
		}
	}
}

// A goroutine's table entry must exist only while it holds at least one
// lock; otherwise the table would grow with goroutine churn.
func TestTableCleanup(t *testing.T) {
	type sizes struct{ before, during, mid, after int }
	ch := make(chan sizes)
	go func() {
		id1, id2 := lockid.Next(), lockid.Next()
		var s sizes
		s.before = tableEntries()
		RegisterLocked(id1)
		RegisterLocked(id2)
		s.during = tableEntries()
		RegisterUnlocked(id1)
		s.mid = tableEntries()
		RegisterUnlocked(id2)
		s.after = tableEntries()
		ch <- s
	}()
	s := <-ch
	if s.during != s.before+1 {
		t.Errorf("entries while holding = %d, want %d", s.during, s.before+1)
	}
	if s.mid != s.before+1 {
		t.Errorf("entries while still holding one = %d, want %d", s.mid, s.before+1)
	}
	if s.after != s.before {
		t.Errorf("entries after releasing all = %d, want %d", s.after, s.before)
	}
}
