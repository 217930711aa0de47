// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package track

import "container/list"

// lruSet is a bounded set of strings with least-recently-inserted
// eviction. Lookups do not refresh recency; the feed delivers event ids
// roughly in order, so insertion order is the age that matters.
type lruSet struct {
	cap   int
	order *list.List
	items map[string]*list.Element
}

func newLRUSet(cap int) *lruSet {
	return &lruSet{
		cap:   cap,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Contains reports whether key is in the set.
func (s *lruSet) Contains(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Add inserts key, evicting the oldest entry when full. Returns false if
// the key was already present.
func (s *lruSet) Add(key string) bool {
	if s.Contains(key) {
		return false
	}
	s.items[key] = s.order.PushBack(key)

	if s.order.Len() > s.cap {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(string))
	}
	return true
}

// Len returns the number of keys held.
func (s *lruSet) Len() int {
	return s.order.Len()
}
