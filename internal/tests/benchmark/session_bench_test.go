package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/internal/core/service"
	"github.com/foxhorn/foxyserver/internal/storage/memory"
)

// prefillTable inserts count sessions and returns them.
func prefillTable(table *service.SessionTable, count int, start time.Time) []*domain.Session {
	sessions := make([]*domain.Session, count)
	for i := range count {
		sessions[i] = createSession(i, start)
		table.Insert(sessions[i])
	}
	return sessions
}

// BenchmarkSessionTableInsert benchmarks inserting into a populated table.
func BenchmarkSessionTableInsert(b *testing.B) {
	runWithSessionCounts(b, SmallSessionCounts, func(b *testing.B, count int) {
		table := service.NewSessionTable(nil)
		start := time.Now()
		prefillTable(table, count, start)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			table.Insert(createSession(count+i, start))
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkSessionTableLookup benchmarks token lookup with sliding expiry.
func BenchmarkSessionTableLookup(b *testing.B) {
	runWithSessionCounts(b, SmallSessionCounts, func(b *testing.B, count int) {
		table := service.NewSessionTable(nil)
		now := time.Now()
		sessions := prefillTable(table, count, now)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if table.Lookup(sessions[i%len(sessions)].Token(), now) == nil {
				b.Fatal("Lookup returned nil")
			}
		}
	})
}

// BenchmarkSessionTableLookupParallel benchmarks concurrent lookups under
// the read lock.
func BenchmarkSessionTableLookupParallel(b *testing.B) {
	runWithSessionCounts(b, SmallSessionCounts, func(b *testing.B, count int) {
		table := service.NewSessionTable(nil)
		now := time.Now()
		sessions := prefillTable(table, count, now)

		b.ResetTimer()
		b.ReportAllocs()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				table.Lookup(sessions[i%len(sessions)].Token(), now)
				i++
			}
		})
	})
}

// BenchmarkSessionTableSweep benchmarks a sweep where every session expired.
func BenchmarkSessionTableSweep(b *testing.B) {
	runWithSessionCounts(b, SmallSessionCounts, func(b *testing.B, count int) {
		start := time.Now()
		later := start.Add(2 * benchSettings.Timeout)

		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			b.StopTimer()
			table := service.NewSessionTable(nil)
			prefillTable(table, count, start)
			b.StartTimer()

			if n := table.Sweep(later); n != count {
				b.Fatalf("Sweep() = %d, want %d", n, count)
			}
		}
	})
}

// BenchmarkGuestSession benchmarks creating guest sessions, the path every
// cookieless request takes.
func BenchmarkGuestSession(b *testing.B) {
	ctx := context.Background()
	auth := service.NewAuthService(memory.New(), &service.AuthServiceConfig{Settings: benchSettings})
	caller := &benchCaller{remote: "127.0.0.1"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if auth.CreateGuestSession(ctx, caller) == nil {
			b.Fatal("CreateGuestSession returned nil")
		}
	}

	b.StopTimer()
	reportMemory(b, "mem")
}
