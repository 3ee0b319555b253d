package bot

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/akihotaki/NextExpense/internal/flow"
	"github.com/akihotaki/NextExpense/internal/logger"
	"log/slog"
)

// Sweeper periodically drops conversation states that have been idle longer
// than the configured TTL.
type Sweeper struct {
	machine  *flow.Machine
	schedule string
	ttl      time.Duration
	cron     *cron.Cron
}

// NewSweeper builds a sweeper; it does nothing until Start is called.
func NewSweeper(m *flow.Machine, schedule string, ttl time.Duration) *Sweeper {
	return &Sweeper{
		machine:  m,
		schedule: schedule,
		ttl:      ttl,
		cron:     cron.New(),
	}
}

// Start schedules the sweep job. An invalid schedule is logged and the
// sweeper stays inactive rather than failing startup.
func (s *Sweeper) Start() {
	if s == nil || s.machine == nil {
		return
	}
	_, err := s.cron.AddFunc(s.schedule, s.sweep)
	if err != nil {
		logger.Flow.Error("sweeper schedule invalid",
			slog.String("event", "sweeper.start"),
			slog.String("schedule", s.schedule),
			slog.String("err", err.Error()),
		)
		return
	}
	s.cron.Start()
	logger.Flow.Info("sweeper started",
		slog.String("event", "sweeper.start"),
		slog.String("schedule", s.schedule),
		slog.Duration("ttl", s.ttl),
	)
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	swept := s.machine.SweepStale(s.ttl)
	if swept > 0 {
		logger.Flow.Info("stale flows swept",
			slog.String("event", "sweeper.run"),
			slog.Int("swept", swept),
		)
	}
}
