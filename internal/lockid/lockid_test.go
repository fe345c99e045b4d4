// Copyright (c) The checkedlock Authors
// SPDX-License-Identifier: BSD-3-Clause

package lockid

import (
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestNextNonZeroDistinct(t *testing.T) {
	a := Next()
	b := Next()
	if a == 0 || b == 0 {
		t.Fatalf("Next returned zero ID: %d, %d", a, b)
	}
	if a == b {
		t.Fatalf("Next returned duplicate ID %d", a)
	}
}

func TestNextConcurrentUnique(t *testing.T) {
	const (
		workers = 16
		perG    = 2048
	)
	var (
		mu  sync.Mutex
		all = make(map[ID]bool, workers*perG)
	)
	var eg errgroup.Group
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			ids := make([]ID, 0, perG)
			for i := 0; i < perG; i++ {
				ids = append(ids, Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				all[id] = true
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	if got, want := len(all), workers*perG; got != want {
		t.Errorf("got %d unique IDs, want %d", got, want)
	}
	if all[0] {
		t.Error("zero ID was issued")
	}
}
