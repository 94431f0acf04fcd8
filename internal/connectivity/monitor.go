// Package connectivity tracks whether the backend is reachable, independent of what the platform reports.
//
// The [Monitor] moves between online, offline-detected and retrying. Losing connectivity starts a fixed-interval
// liveness probe that runs until a probe succeeds, the platform reports online again, or the user dismisses the
// banner. Notices are only emitted on transitions, so repeated offline signals never stack up banners.
package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/schedule"
	"github.com/desertthunder/ytfetch/internal/services"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// DefaultProbeInterval is the delay between liveness probes while retrying.
const DefaultProbeInterval = 2 * time.Second

// Notice is the user-facing message attached to a transition.
type Notice int

const (
	NoticeNone Notice = iota
	// NoticeLost announces that the backend went away.
	NoticeLost
	// NoticeRestored announces that the backend is reachable again.
	NoticeRestored
	// NoticeCleared removes any banner without asserting connectivity.
	NoticeCleared
)

func (n Notice) String() string {
	switch n {
	case NoticeLost:
		return "connection lost, retrying"
	case NoticeRestored:
		return "connection restored"
	case NoticeCleared:
		return "cleared"
	default:
		return ""
	}
}

// Event is published on every state change.
type Event struct {
	State  models.Connectivity
	Notice Notice
	At     time.Time
}

// Monitor is the connectivity state machine.
//
// Offline-detected is passed through on the way to retrying: the event is published, then probing starts at once.
type Monitor struct {
	ctx      context.Context
	prober   services.Prober
	clock    schedule.Clock
	interval time.Duration
	loop     *schedule.Loop
	logger   *log.Logger
	events   chan Event

	mu       sync.Mutex
	state    models.Connectivity
	gen      uint64
	attempts int
}

// NewMonitor creates a monitor in the online state. Probes run with ctx.
func NewMonitor(ctx context.Context, prober services.Prober, clock schedule.Clock, interval time.Duration, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if clock == nil {
		clock = schedule.RealClock()
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	m := &Monitor{
		ctx:      ctx,
		prober:   prober,
		clock:    clock,
		interval: interval,
		logger:   logger,
		events:   make(chan Event, 16),
		state:    models.Online,
	}
	m.loop = schedule.NewLoop(clock, interval, m.probe)
	return m
}

// Events returns the channel transitions are published on. Sends never block.
func (m *Monitor) Events() <-chan Event { return m.events }

// State returns the current state.
func (m *Monitor) State() models.Connectivity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the number of failed probes since connectivity was lost.
func (m *Monitor) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Probing reports whether the probe loop is armed.
func (m *Monitor) Probing() bool { return m.loop.Running() }

// PlatformOffline handles an offline signal from the platform.
func (m *Monitor) PlatformOffline() { m.lose("platform offline") }

// ReportFailure handles a failed foreground action. Only connectivity failures count; it reports whether err did.
func (m *Monitor) ReportFailure(err error) bool {
	if !IsConnectivityError(err) {
		return false
	}
	m.lose(err.Error())
	return true
}

// PlatformOnline handles an online signal from the platform.
func (m *Monitor) PlatformOnline() { m.restore(0, false) }

// Dismiss stops retrying and clears the banner without claiming the backend is back.
func (m *Monitor) Dismiss() {
	m.mu.Lock()
	if m.state == models.Online {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.state = models.Online
	m.attempts = 0
	m.mu.Unlock()

	m.loop.Stop()
	m.logger.Info("connectivity banner dismissed")
	m.publish(models.Online, NoticeCleared)
}

// Stop halts the probe loop without changing state.
func (m *Monitor) Stop() { m.loop.Stop() }

func (m *Monitor) lose(reason string) {
	m.mu.Lock()
	if m.state != models.Online {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.state = models.Retrying
	m.attempts = 0
	m.mu.Unlock()

	m.logger.Warn("connectivity lost", "reason", reason)
	m.publish(models.OfflineDetected, NoticeLost)
	m.publish(models.Retrying, NoticeNone)

	m.loop.Start()
}

// restore moves to online. A probe passes the generation it started in and is ignored if the state moved on.
func (m *Monitor) restore(gen uint64, fromProbe bool) {
	m.mu.Lock()
	if m.state == models.Online || (fromProbe && gen != m.gen) {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.state = models.Online
	attempts := m.attempts
	m.attempts = 0
	m.mu.Unlock()

	m.loop.Stop()
	m.logger.Info("connectivity restored", "failed_probes", attempts)
	m.publish(models.Online, NoticeRestored)
}

func (m *Monitor) probe() {
	m.mu.Lock()
	if m.state != models.Retrying {
		m.mu.Unlock()
		m.loop.Stop()
		return
	}
	gen := m.gen
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(m.ctx, m.interval)
	err := m.prober.ProbeLiveness(ctx)
	cancel()

	if err == nil {
		m.restore(gen, true)
		return
	}

	m.mu.Lock()
	if gen == m.gen {
		m.attempts++
	}
	attempts := m.attempts
	m.mu.Unlock()
	m.logger.Debug("liveness probe failed", "attempt", attempts, "err", err)
}

func (m *Monitor) publish(state models.Connectivity, notice Notice) {
	select {
	case m.events <- Event{State: state, Notice: notice, At: m.clock.Now()}:
	default:
	}
}

// IsConnectivityError reports whether err means the backend could not be reached.
func IsConnectivityError(err error) bool {
	return errors.Is(err, shared.ErrTransport) || errors.Is(err, shared.ErrServiceUnavailable)
}
