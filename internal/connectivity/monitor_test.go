package connectivity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
	tu "github.com/desertthunder/ytfetch/internal/testing"
)

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func notices(events []Event) []Notice {
	var out []Notice
	for _, ev := range events {
		if ev.Notice != NoticeNone {
			out = append(out, ev.Notice)
		}
	}
	return out
}

func newTestMonitor(probe func(context.Context) error) (*Monitor, *tu.FakeClock, *tu.MockBackend) {
	clock := tu.NewFakeClock()
	backend := &tu.MockBackend{ProbeFunc: probe}
	return NewMonitor(context.Background(), backend, clock, 0, nil), clock, backend
}

func TestMonitor(t *testing.T) {
	down := func(context.Context) error { return shared.ErrServiceUnavailable }

	t.Run("Offline Enters Retrying", func(t *testing.T) {
		m, clock, backend := newTestMonitor(down)
		m.PlatformOffline()

		if m.State() != models.Retrying {
			t.Fatalf("expected retrying, got %v", m.State())
		}
		events := drain(m.Events())
		if len(events) != 2 || events[0].State != models.OfflineDetected || events[1].State != models.Retrying {
			t.Errorf("expected offline-detected then retrying, got %+v", events)
		}
		if backend.Probes() != 0 {
			t.Error("expected first probe to wait for the interval")
		}

		clock.Advance(DefaultProbeInterval)
		if backend.Probes() != 1 {
			t.Errorf("expected 1 probe, got %d", backend.Probes())
		}
	})

	t.Run("Failed Probe Stays Retrying", func(t *testing.T) {
		m, clock, backend := newTestMonitor(down)
		m.PlatformOffline()

		clock.Advance(3 * DefaultProbeInterval)
		if m.State() != models.Retrying {
			t.Errorf("expected retrying, got %v", m.State())
		}
		if backend.Probes() != 3 || m.Attempts() != 3 {
			t.Errorf("expected 3 failed probes, got probes=%d attempts=%d", backend.Probes(), m.Attempts())
		}
		if clock.Pending() != 1 {
			t.Errorf("expected exactly one armed timer, got %d", clock.Pending())
		}
	})

	t.Run("Successful Probe Restores And Stops", func(t *testing.T) {
		calls := 0
		m, clock, backend := newTestMonitor(func(context.Context) error {
			calls++
			if calls < 2 {
				return shared.ErrTransport
			}
			return nil
		})
		m.PlatformOffline()
		drain(m.Events())

		clock.Advance(2 * DefaultProbeInterval)
		if m.State() != models.Online {
			t.Fatalf("expected online, got %v", m.State())
		}
		if got := notices(drain(m.Events())); len(got) != 1 || got[0] != NoticeRestored {
			t.Errorf("expected a single restored notice, got %v", got)
		}

		clock.Advance(10 * DefaultProbeInterval)
		if backend.Probes() != 2 {
			t.Errorf("expected no probes after restore, got %d", backend.Probes())
		}
		if m.Probing() || clock.Pending() != 0 {
			t.Error("expected probe timer stopped")
		}
	})

	t.Run("Repeated Offline Signals Are Suppressed", func(t *testing.T) {
		m, clock, _ := newTestMonitor(down)
		m.PlatformOffline()
		clock.Advance(DefaultProbeInterval / 2)
		m.PlatformOffline()
		m.ReportFailure(shared.ErrTransport)

		if got := notices(drain(m.Events())); len(got) != 1 || got[0] != NoticeLost {
			t.Errorf("expected a single lost notice, got %v", got)
		}
		if clock.Pending() != 1 {
			t.Errorf("expected one probe timer, got %d", clock.Pending())
		}
	})

	t.Run("Platform Online", func(t *testing.T) {
		m, clock, backend := newTestMonitor(down)
		m.PlatformOffline()
		m.PlatformOnline()

		if m.State() != models.Online {
			t.Errorf("expected online, got %v", m.State())
		}
		clock.Advance(5 * DefaultProbeInterval)
		if backend.Probes() != 0 {
			t.Errorf("expected no probes, got %d", backend.Probes())
		}
	})

	t.Run("Dismiss Stops Without Restoring", func(t *testing.T) {
		m, clock, backend := newTestMonitor(down)
		m.PlatformOffline()
		clock.Advance(DefaultProbeInterval)
		drain(m.Events())

		m.Dismiss()
		if got := notices(drain(m.Events())); len(got) != 1 || got[0] != NoticeCleared {
			t.Errorf("expected cleared notice, got %v", got)
		}
		clock.Advance(5 * DefaultProbeInterval)
		if backend.Probes() != 1 {
			t.Errorf("expected probing stopped, got %d probes", backend.Probes())
		}

		m.PlatformOffline()
		if got := notices(drain(m.Events())); len(got) != 1 || got[0] != NoticeLost {
			t.Errorf("expected banner to reappear, got %v", got)
		}
		if m.Attempts() != 0 {
			t.Errorf("expected attempts reset, got %d", m.Attempts())
		}
	})

	t.Run("Dismiss While Online Is Silent", func(t *testing.T) {
		m, _, _ := newTestMonitor(down)
		m.Dismiss()
		m.PlatformOnline()
		if events := drain(m.Events()); len(events) != 0 {
			t.Errorf("expected no events, got %+v", events)
		}
	})

	t.Run("Stale Probe Success Ignored", func(t *testing.T) {
		var m *Monitor
		m, clock, _ := newTestMonitor(func(context.Context) error {
			m.Dismiss()
			m.PlatformOffline()
			return nil
		})
		m.PlatformOffline()
		clock.Advance(DefaultProbeInterval)

		if m.State() != models.Retrying {
			t.Errorf("expected success from superseded probe to be ignored, got %v", m.State())
		}
	})
}

func TestReportFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport", fmt.Errorf("%w: dial tcp: refused", shared.ErrTransport), true},
		{"service unavailable", shared.ErrServiceUnavailable, true},
		{"not finished", shared.ErrNotFinished, false},
		{"invalid url", shared.ErrInvalidURL, false},
		{"unrelated", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(context.Background(), &tu.MockBackend{}, tu.NewFakeClock(), time.Second, nil)
			if got := m.ReportFailure(tt.err); got != tt.want {
				t.Errorf("ReportFailure(%v) = %v, want %v", tt.err, got, tt.want)
			}
			want := models.Online
			if tt.want {
				want = models.Retrying
			}
			if m.State() != want {
				t.Errorf("expected state %v, got %v", want, m.State())
			}
		})
	}
}
