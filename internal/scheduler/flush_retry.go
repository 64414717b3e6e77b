package scheduler

import (
	"context"
	"time"

	"github.com/clipbook/clipbook/internal/logger"
)

// Flusher is a collection owner that may owe the durable store a
// write. Dirty reports an unflushed state; Flush retries the write.
type Flusher interface {
	Dirty() bool
	Flush(ctx context.Context) error
}

// FlushRetrier retries failed durable writes. When a mutation-time
// write fails, the library keeps serving from memory and marks itself
// dirty; this loop periodically retries until the store accepts the
// document again.
type FlushRetrier struct {
	flusher  Flusher
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewFlushRetrier creates a new flush retrier
func NewFlushRetrier(
	flusher Flusher,
	log logger.Logger,
	interval time.Duration,
) *FlushRetrier {
	return &FlushRetrier{
		flusher:  flusher,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic retry loop.
func (fr *FlushRetrier) Start(ctx context.Context) error {
	ticker := time.NewTicker(fr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fr.retry(ctx)
			case <-fr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the retrier
func (fr *FlushRetrier) Stop() {
	close(fr.stopCh)
}

// retry flushes once when a write is owed. Failures stay dirty and
// are picked up on the next tick.
func (fr *FlushRetrier) retry(ctx context.Context) {
	if !fr.flusher.Dirty() {
		return
	}

	if err := fr.flusher.Flush(ctx); err != nil {
		fr.logger.Warn("durable write retry failed",
			logger.Error(err))
		return
	}

	fr.logger.Info("durable write recovered after retry")
}
