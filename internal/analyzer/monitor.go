package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/clipbook/clipbook/internal/logger"
	"golang.org/x/sync/singleflight"
)

// State is the analyzer availability state.
type State int

const (
	// StateUnknown means no probe has run yet.
	StateUnknown State = iota
	// StateConnecting means the startup probe loop is still trying.
	StateConnecting
	// StateAvailable means the remote reported ready.
	StateAvailable
	// StateUnavailable means probing gave up; consumer calls may still
	// trigger a recheck that brings the analyzer back.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// probeTimeout bounds a single status request.
const probeTimeout = 5 * time.Second

// Clock abstracts timer scheduling so tests drive the probe loop
// without real waiting.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type statusProber interface {
	status(ctx context.Context) (*statusInfo, error)
}

// Monitor drives the availability state machine: after a startup
// delay it probes the remote with a fixed retry delay, up to a bounded
// attempt count, then goes passive. Consumer-triggered rechecks can
// flip the state at any later point.
type Monitor struct {
	prober statusProber
	logger logger.Logger
	clock  Clock

	startupDelay time.Duration
	retryDelay   time.Duration
	maxAttempts  int

	mu    sync.RWMutex
	state State
	model string

	stopCh chan struct{}
	group  singleflight.Group
}

// NewMonitor creates a monitor for the given prober.
func NewMonitor(prober statusProber, opts Options, log logger.Logger) *Monitor {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Monitor{
		prober:       prober,
		logger:       log,
		clock:        clock,
		startupDelay: opts.StartupDelay,
		retryDelay:   opts.RetryDelay,
		maxAttempts:  opts.MaxAttempts,
		state:        StateUnknown,
		stopCh:       make(chan struct{}),
	}
}

// Start launches the probe loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateConnecting
	m.mu.Unlock()

	go m.run(ctx)
	return nil
}

// Stop halts the probe loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

// State returns the current availability state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Model returns the model name from the last successful probe.
func (m *Monitor) Model() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model
}

// Recheck runs one status probe now. Concurrent rechecks collapse into
// a single request. Returns true when the remote is available.
func (m *Monitor) Recheck(ctx context.Context) bool {
	v, _, _ := m.group.Do("recheck", func() (interface{}, error) {
		ok := m.probe(ctx)
		if !ok {
			m.demote()
		}
		return ok, nil
	})
	return v.(bool)
}

func (m *Monitor) run(ctx context.Context) {
	select {
	case <-m.clock.After(m.startupDelay):
	case <-m.stopCh:
		return
	case <-ctx.Done():
		return
	}

	for attempt := 1; ; attempt++ {
		if m.probe(ctx) {
			m.logger.Info("analyzer available",
				logger.String("model", m.Model()),
				logger.Int("attempts", attempt))
			return
		}

		if attempt >= m.maxAttempts {
			m.logger.Warn("analyzer not ready, giving up until next consumer call",
				logger.Int("attempts", attempt))
			m.mu.Lock()
			m.state = StateUnavailable
			m.mu.Unlock()
			return
		}

		m.logger.Debug("analyzer not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", m.retryDelay))

		select {
		case <-m.clock.After(m.retryDelay):
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// probe issues one status request and promotes to Available on a
// ready report. Failures leave the state to the caller.
func (m *Monitor) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	info, err := m.prober.status(probeCtx)
	if err != nil || !info.Available {
		return false
	}

	m.mu.Lock()
	m.state = StateAvailable
	m.model = info.Model
	m.mu.Unlock()
	return true
}

// demote marks the analyzer unavailable after a failed recheck. The
// startup loop keeps ownership of the state while still connecting.
func (m *Monitor) demote() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateConnecting {
		return
	}
	m.state = StateUnavailable
}
