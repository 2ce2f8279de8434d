package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultBufferSize is the capacity of the recorder queue.
const DefaultBufferSize = 256

// writeTimeout bounds a single audit insert.
const writeTimeout = 5 * time.Second

// Recorder writes entries asynchronously through a bounded queue drained by
// one goroutine. Entries that do not fit are dropped with a warning so that
// request handling never blocks on the audit trail.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
	queue  chan *Entry

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRecorder creates a recorder. A bufferSize of zero or less uses
// DefaultBufferSize. Call Start before recording and Close on shutdown.
func NewRecorder(repo Repository, logger *slog.Logger, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Recorder{
		repo:   repo,
		logger: logger,
		queue:  make(chan *Entry, bufferSize),
	}
}

// Start launches the drain goroutine.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.drain()
}

// Record enqueues an entry. It never blocks.
func (r *Recorder) Record(entry Entry) {
	if r == nil {
		return
	}
	if entry.Source == "" {
		entry.Source = "api"
	}

	select {
	case r.queue <- &entry:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			"action", entry.Action,
			"entity_type", entry.EntityType,
		)
	}
}

// Close stops accepting work and waits until queued entries are written.
// Record must not be called after Close.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.queue) })
	r.wg.Wait()
}

func (r *Recorder) drain() {
	defer r.wg.Done()

	for entry := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Create(ctx, entry); err != nil {
			r.logger.Error("audit log write failed",
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"error", err,
			)
		}
		cancel()
	}
}
