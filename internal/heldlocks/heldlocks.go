// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package heldlocks tracks, per goroutine, which checked mutexes that
// goroutine currently holds.
//
// Go has no thread-local storage and no goroutine-exit hook, so the
// per-goroutine set lives in a sharded table keyed by goroutine ID. The
// shard mutex is held only for the duration of a single registry operation
// and no callback API is exposed, so the registry cannot be re-entered
// while an entry is borrowed. A goroutine's entry is dropped as soon as it
// holds no locks, which keeps the table from growing with goroutine churn.
package heldlocks

import (
	"sync"

	"github.com/petermattis/goid"

	"github.com/checkedlock/checkedlock/internal/lockid"
	"github.com/checkedlock/checkedlock/internal/lockset"
)

// shardCount trades table contention against memory. Must be a power of two.
const shardCount = 32

type shard struct {
	mu   sync.Mutex
	sets map[int64]*lockset.Set // keyed by goroutine ID
}

var shards [shardCount]shard

func shardFor(gid int64) *shard {
	return &shards[uint64(gid)&(shardCount-1)]
}

// RegisterLocked records id as held by the calling goroutine. It reports
// whether id was not already held; if it was, nothing changes.
func RegisterLocked(id lockid.ID) bool {
	gid := goid.Get()
	sh := shardFor(gid)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set := sh.sets[gid]
	if set == nil {
		set = new(lockset.Set)
		if sh.sets == nil {
			sh.sets = make(map[int64]*lockset.Set)
		}
		sh.sets[gid] = set
	}
	return set.Add(id)
}

// RegisterUnlocked removes id from the calling goroutine's held set. It
// reports whether id was held; if it was not, nothing changes.
func RegisterUnlocked(id lockid.ID) bool {
	gid := goid.Get()
	sh := shardFor(gid)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set := sh.sets[gid]
	if set == nil {
		return false
	}
	removed := set.Remove(id)
	if removed && set.Empty() {
		delete(sh.sets, gid)
	}
	return removed
}

// LockedByCurrentGoroutine reports whether the calling goroutine holds id.
func LockedByCurrentGoroutine(id lockid.ID) bool {
	gid := goid.Get()
	sh := shardFor(gid)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set := sh.sets[gid]
	return set != nil && set.Contains(id)
}
