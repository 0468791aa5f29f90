package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/foxhorn/foxyserver/internal/core/domain"
)

// Sequence lease size; ids handed out but unused at shutdown are skipped.
const sequenceBandwidth = 16

// maxTxnRetries bounds retries of a write transaction on conflict.
const maxTxnRetries = 5

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: closed")

// openBadger opens the database described by cfg.
func openBadger(cfg BadgerConfig, logger *slog.Logger) (*badger.DB, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	return db, nil
}

// GC runs value log garbage collection until nothing more is rewritten and
// returns the number of rewrites.
func (s *BadgerCredentialStore) GC() (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if s.cfg.InMemory {
		return 0, nil
	}

	start := time.Now()
	runs := 0
	for {
		err := s.db.RunValueLogGC(s.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(uint64(runs))
	s.logger.Debug("gc completed", "rewrites", runs, "elapsed", time.Since(start))
	return runs, nil
}

// gcLoop runs periodic garbage collection.
func (s *BadgerCredentialStore) gcLoop() {
	defer close(s.doneCh)

	if s.cfg.GCInterval <= 0 || s.cfg.InMemory {
		<-s.stopCh
		return
	}

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.GC(); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
		case <-s.stopCh:
			return
		}
	}
}

// RegisterMetrics registers size and GC gauges with reg.
func (s *BadgerCredentialStore) RegisterMetrics(reg prometheus.Registerer) error {
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "foxy",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		l, _ := s.db.Size()
		return float64(l)
	})
	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "foxy",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, v := s.db.Size()
		return float64(v)
	})
	lastGC := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "foxy",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	}, func() float64 {
		return float64(s.lastGCTime.Load()) / 1000.0
	})
	gcRuns := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "foxy",
		Subsystem: "badger",
		Name:      "gc_rewrites_total",
		Help:      "Value log files rewritten by Badger garbage collection",
	}, func() float64 {
		return float64(s.gcRuns.Load())
	})

	for _, c := range []prometheus.Collector{lsm, vlog, lastGC, gcRuns} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the id sequences, stops the GC loop and closes the
// database.
func (s *BadgerCredentialStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info("shutting down credential store")

	close(s.stopCh)
	<-s.doneCh

	err := errors.Join(s.userSeq.Release(), s.roleSeq.Release())
	if cerr := s.db.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close db: %w", cerr))
	}
	return err
}

// update runs fn in a write transaction, retrying on conflict.
func (s *BadgerCredentialStore) update(fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	for attempt := 0; ; attempt++ {
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxTxnRetries {
			continue
		}
		return storageError(err)
	}
}

// view runs fn in a read transaction.
func (s *BadgerCredentialStore) view(fn func(txn *badger.Txn) error) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return storageError(s.db.View(fn))
}

// storageError wraps engine failures; domain errors pass through.
func storageError(err error) error {
	if err == nil || domain.IsDomainError(err, "") || errors.Is(err, ErrClosed) {
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Ping reports whether the database is open and readable.
func (s *BadgerCredentialStore) Ping(context.Context) error {
	return s.view(func(*badger.Txn) error { return nil })
}
