package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "saturn_audit_entries_total",
		Help: "Total rotation audit entries recorded, by outcome and trigger.",
	}, []string{"outcome", "trigger"})

	writeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saturn_audit_write_failures_total",
		Help: "Total audit entries that could not be persisted.",
	})

	entriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "saturn_audit_entries_dropped_total",
		Help: "Total audit entries dropped because the write buffer was full.",
	})
)

// Config contains configuration for the audit recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 256
	AsyncBuffer int

	// WriteTimeout is the timeout for writing one entry to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  256,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes rotation audit entries asynchronously. Record returns
// immediately; a background worker drains the channel into storage.
// Writes are best effort: a storage failure is logged and counted but
// never surfaced to the rotation that produced the entry.
type Recorder struct {
	storage   Storage
	config    *Config
	entryChan chan *RotationEntry
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewRecorder creates an audit recorder over the given storage backend
// and starts its background writer.
func NewRecorder(storage Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 256
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage:   storage,
		config:    config,
		entryChan: make(chan *RotationEntry, config.AsyncBuffer),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record assigns the entry an ID and timestamp if missing and enqueues
// it. When the buffer is full the entry is dropped rather than blocking
// the caller.
func (r *Recorder) Record(entry *RotationEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	entriesRecorded.WithLabelValues(string(entry.Outcome), string(entry.Trigger)).Inc()

	select {
	case r.entryChan <- entry:
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping audit entry",
			"entry_id", entry.ID,
			"provider", entry.Provider,
		)
		entriesDropped.Inc()
	default:
		r.logger.Error("audit channel full, dropping entry",
			"entry_id", entry.ID,
			"provider", entry.Provider,
			"channel_capacity", r.config.AsyncBuffer,
		)
		entriesDropped.Inc()
	}
}

// Close drains the channel and waits for pending writes to finish.
// Repeated calls are no-ops; components up the stack may each own a
// reference and close on shutdown.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

// worker drains the entry channel into storage until shutdown.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case entry := <-r.entryChan:
			r.writeEntry(entry)

		case <-r.done:
			for {
				select {
				case entry := <-r.entryChan:
					r.writeEntry(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeEntry(entry *RotationEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Append(ctx, entry); err != nil {
		writeFailures.Inc()
		r.logger.Error("failed to store audit entry",
			"entry_id", entry.ID,
			"provider", entry.Provider,
			"tier", entry.Tier,
			"error", err,
		)
		return
	}

	r.logger.Debug("audit entry recorded",
		"entry_id", entry.ID,
		"provider", entry.Provider,
		"tier", entry.Tier,
		"outcome", string(entry.Outcome),
		"trigger", string(entry.Trigger),
	)
}

// Recent reads back the newest entries from storage. This is the
// synchronous query path used by admin tooling; entries still in the
// write buffer may not be visible yet.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*RotationEntry, error) {
	return r.storage.Recent(ctx, limit)
}
