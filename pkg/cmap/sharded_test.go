package cmap

import (
	"sort"
	"sync"
	"testing"
)

func TestMap_SetGetDelete(t *testing.T) {
	m := New[string, int]()

	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	if !m.Has("b") {
		t.Error("Has(b) = false, want true")
	}
	if got := m.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	m.Delete("a")
	if m.Has("a") {
		t.Error("Has(a) after Delete = true")
	}
}

func TestMap_IntKeys(t *testing.T) {
	m := New[int64, string]()
	for i := int64(0); i < 100; i++ {
		m.Set(i, "v")
	}
	if got := m.Count(); got != 100 {
		t.Fatalf("Count() = %d, want 100", got)
	}
	if _, ok := m.Get(42); !ok {
		t.Error("Get(42) missing")
	}
}

func TestMap_SetIfAbsentAndPop(t *testing.T) {
	m := New[string, int]()

	if !m.SetIfAbsent("k", 1) {
		t.Fatal("SetIfAbsent on empty map = false")
	}
	if m.SetIfAbsent("k", 2) {
		t.Fatal("SetIfAbsent on existing key = true")
	}
	v, ok := m.Pop("k")
	if !ok || v != 1 {
		t.Fatalf("Pop(k) = %d, %v, want 1, true", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Error("second Pop(k) = true")
	}
}

func TestMap_RangeAndValues(t *testing.T) {
	m := New[string, int]()
	m.Set("x", 1)
	m.Set("y", 2)
	m.Set("z", 3)

	vals := m.Values()
	sort.Ints(vals)
	if len(vals) != 3 || vals[0] != 1 || vals[2] != 3 {
		t.Fatalf("Values() = %v", vals)
	}

	n := 0
	m.Range(func(string, int) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("Range stopped after %d items, want 1", n)
	}
}

func TestNewWithShards_InvalidCount(t *testing.T) {
	if got := NewWithShards[string, int](3).ShardCount(); got != DefaultShardCount {
		t.Errorf("ShardCount() = %d, want %d", got, DefaultShardCount)
	}
	if got := NewWithShards[string, int](32).ShardCount(); got != 32 {
		t.Errorf("ShardCount() = %d, want 32", got)
	}
}

func TestMap_Concurrent(t *testing.T) {
	m := New[int, int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				m.Set(g*1000+i, i)
				m.Get(g*1000 + i)
			}
		}(g)
	}
	wg.Wait()
	if got := m.Count(); got != 1600 {
		t.Errorf("Count() = %d, want 1600", got)
	}
}
