// Package cmap provides a concurrent map implementation.
//
// Keys are spread over a power-of-two number of shards, each guarded by
// its own RWMutex. Shard selection uses murmur3 over the key's string form.
//
// Usage:
//
//	m := cmap.New[int64, *domain.Credentials]()
//	m.Set(1, creds)
//	val, ok := m.Get(1)
//
// Read operations (Get, Has, Range) use RLock, write operations
// (Set, Delete, Pop, SetIfAbsent) use Lock.
package cmap
