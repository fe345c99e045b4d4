// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package lockid issues process-wide unique identities for mutexes.
package lockid

import "sync/atomic"

// An ID identifies one mutex instance for the lifetime of the process.
// A valid ID is never zero and is never reused, so per-goroutine held-lock
// bookkeeping can use it as a set key with no risk of two mutexes aliasing.
type ID uint64

// maxIDs is the number of IDs that may be issued in one process. Going past
// it would eventually wrap the counter and hand two mutexes the same ID.
const maxIDs = 1 << 63

var counter atomic.Uint64

// Next returns an ID distinct from that of every previous call in the
// process. It is safe to call from any goroutine; uniqueness needs only
// atomicity, not any ordering guarantee.
//
// Next panics once 2^63 IDs have been issued. ID reuse would silently
// corrupt the held-lock registry, so exhaustion is fatal, not an error.
func Next() ID {
	n := counter.Add(1)
	if n > maxIDs {
		panic("lockid: more than 2^63 mutexes created in one process")
	}
	return ID(n)
}
