package memory

import (
	"slices"
	"sync"

	"github.com/foxhorn/foxyserver/pkg/cmap"
)

// IDSet is a concurrent-safe set of ids.
type IDSet struct {
	mu    sync.RWMutex
	items map[int64]struct{}
}

// NewIDSet creates a new id set.
func NewIDSet() *IDSet {
	return &IDSet{
		items: make(map[int64]struct{}),
	}
}

// Add adds an id to the set.
func (s *IDSet) Add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

// Remove removes an id from the set.
func (s *IDSet) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// Contains checks if an id is in the set.
func (s *IDSet) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Len returns the number of ids in the set.
func (s *IDSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns the ids in ascending order.
func (s *IDSet) Items() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]int64, 0, len(s.items))
	for id := range s.items {
		items = append(items, id)
	}
	slices.Sort(items)
	return items
}

// RoleIndex maps a role id to the ids of the users holding it.
type RoleIndex struct {
	index *cmap.Map[int64, *IDSet]
}

// NewRoleIndex creates a new role index.
func NewRoleIndex() *RoleIndex {
	return &RoleIndex{
		index: cmap.New[int64, *IDSet](),
	}
}

// Add records that userID holds roleID.
func (i *RoleIndex) Add(roleID, userID int64) {
	set, ok := i.index.Get(roleID)
	if !ok {
		newSet := NewIDSet()
		if i.index.SetIfAbsent(roleID, newSet) {
			set = newSet
		} else {
			set, _ = i.index.Get(roleID)
		}
	}
	set.Add(userID)
}

// Remove records that userID no longer holds roleID.
func (i *RoleIndex) Remove(roleID, userID int64) {
	set, ok := i.index.Get(roleID)
	if !ok {
		return
	}
	set.Remove(userID)
	if set.Len() == 0 {
		i.index.Delete(roleID)
	}
}

// Members returns the users holding roleID.
func (i *RoleIndex) Members(roleID int64) []int64 {
	set, ok := i.index.Get(roleID)
	if !ok {
		return nil
	}
	return set.Items()
}

// Count returns the number of users holding roleID.
func (i *RoleIndex) Count(roleID int64) int {
	set, ok := i.index.Get(roleID)
	if !ok {
		return 0
	}
	return set.Len()
}

// Drop removes every membership of roleID.
func (i *RoleIndex) Drop(roleID int64) {
	i.index.Delete(roleID)
}
