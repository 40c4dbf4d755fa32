package session

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Reaper periodically removes sessions that have sat empty for longer
// than a TTL, along with their credentials. A zero or negative TTL
// disables reaping and sessions live until process shutdown.
type Reaper struct {
	registry *Registry
	gate     *PasswordGate
	ttl      time.Duration
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewReaper wires a reaper to the registry and gate it sweeps.
func NewReaper(registry *Registry, gate *PasswordGate, ttl time.Duration, logger zerolog.Logger) *Reaper {
	return &Reaper{
		registry: registry,
		gate:     gate,
		ttl:      ttl,
		logger:   logger.With().Str("component", "reaper").Logger(),
	}
}

// Start schedules sweeps at the given interval. It does nothing when
// reaping is disabled.
func (r *Reaper) Start(every time.Duration) error {
	if r.ttl <= 0 {
		r.logger.Info().Msg("session reaping disabled")
		return nil
	}
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(fmt.Sprintf("@every %s", every), r.Sweep); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	r.cron.Start()
	r.logger.Info().Dur("ttl", r.ttl).Dur("every", every).Msg("session reaper started")
	return nil
}

// Stop halts scheduled sweeps.
func (r *Reaper) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// Sweep runs one reap pass over the registry and gate.
func (r *Reaper) Sweep() {
	for _, id := range r.registry.SweepIdle(r.ttl, time.Now()) {
		r.gate.Remove(id)
		r.logger.Info().Str("session", id).Msg("reaped idle session")
	}
}
