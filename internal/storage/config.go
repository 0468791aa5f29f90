package storage

import "time"

// BadgerConfig holds Badger engine configuration.
type BadgerConfig struct {
	// Dir is the data directory. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory; nothing is written to disk.
	InMemory bool

	// GCInterval is the interval between value log GC runs.
	// Zero disables the background GC.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// SyncWrites fsyncs every write.
	SyncWrites bool
}

// DefaultBadgerConfig returns the default configuration for dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   16 << 20, // 16MB
		SyncWrites:  true,
	}
}

// InMemoryBadgerConfig returns a configuration for a throwaway store.
func InMemoryBadgerConfig() BadgerConfig {
	cfg := DefaultBadgerConfig("")
	cfg.InMemory = true
	cfg.GCInterval = 0
	cfg.SyncWrites = false
	return cfg
}
