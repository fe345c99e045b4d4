// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lockset implements the set of lock IDs held by one goroutine.
package lockset

import "github.com/checkedlock/checkedlock/internal/lockid"

// inlineSlots is the number of IDs stored without allocating. Holding more
// than a handful of locks at once is rare; four slots cover the common case.
const inlineSlots = 4

// A Set records which lock IDs a single goroutine currently holds.
//
// The zero value is an empty set ready for use. A Set is owned by exactly
// one goroutine and is not safe for concurrent use.
//
// The first few IDs live in an inline array so that the common case (a
// goroutine nesting a handful of locks) costs no allocation or hashing;
// further IDs overflow into a map set. An ID is present in at most one of
// the two tiers, never both.
type Set struct {
	inline   [inlineSlots]lockid.ID // zero means an empty slot
	overflow map[lockid.ID]struct{} // nil until first needed
}

// Add records id as held. It reports whether id was not already present.
// If id was already present, the set is unchanged.
func (s *Set) Add(id lockid.ID) bool {
	free := -1
	for i, got := range s.inline {
		if got == id {
			return false
		}
		if got == 0 && free < 0 {
			free = i
		}
	}
	// Even with a free inline slot, the overflow set must be consulted
	// first: id may have landed there while the inline array was full.
	if _, ok := s.overflow[id]; ok {
		return false
	}
	if free >= 0 {
		s.inline[free] = id
		return true
	}
	if s.overflow == nil {
		s.overflow = make(map[lockid.ID]struct{})
	}
	s.overflow[id] = struct{}{}
	return true
}

// Remove deletes id from the set. It reports whether id was present.
// If id was not present, the set is unchanged.
func (s *Set) Remove(id lockid.ID) bool {
	for i, got := range s.inline {
		if got == id {
			s.inline[i] = 0
			return true
		}
	}
	if _, ok := s.overflow[id]; ok {
		delete(s.overflow, id)
		return true
	}
	return false
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id lockid.ID) bool {
	for _, got := range s.inline {
		if got == id {
			return true
		}
	}
	_, ok := s.overflow[id]
	return ok
}

// Len reports the number of IDs in the set.
func (s *Set) Len() int {
	n := len(s.overflow)
	for _, got := range s.inline {
		if got != 0 {
			n++
		}
	}
	return n
}

// Empty reports whether the set holds no IDs.
func (s *Set) Empty() bool { return s.Len() == 0 }
