package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytfetch/internal/schedule"
	"github.com/desertthunder/ytfetch/internal/shared"
)

// DefaultPollInterval is the task poll cadence.
const DefaultPollInterval = time.Second

// Poller drives a [Reconciler] on a fixed cadence.
type Poller struct {
	ctx    context.Context
	rec    *Reconciler
	loop   *schedule.Loop
	logger *log.Logger
}

// NewPoller creates a stopped poller. Polls run with ctx; cancelling it makes every later poll fail fast.
func NewPoller(ctx context.Context, rec *Reconciler, clock schedule.Clock, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	p := &Poller{ctx: ctx, rec: rec, logger: logger}
	p.loop = schedule.NewLoop(clock, interval, p.tick)
	return p
}

func (p *Poller) tick() {
	if _, err := p.rec.Poll(p.ctx); err != nil {
		p.logger.Debug("background poll failed", "err", err)
	}
}

// Start polls once immediately and then on every interval.
func (p *Poller) Start() {
	p.Kick()
}

// Kick polls now and restarts the interval, e.g. right after a task was launched.
func (p *Poller) Kick() {
	p.loop.Start()
	p.tick()
}

// Stop halts polling.
func (p *Poller) Stop() { p.loop.Stop() }

// Running reports whether the poller is started.
func (p *Poller) Running() bool { return p.loop.Running() }
