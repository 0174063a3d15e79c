package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweepable is what the Sweeper drives. The Redis-backed store returns 0
// because expiry is native there.
type Sweepable interface {
	SweepExpired(ctx context.Context) int
}

// Sweeper runs SweepExpired on a fixed interval, independent of request
// traffic, so abandoned sessions do not accumulate unboundedly.
type Sweeper struct {
	target   Sweepable
	interval time.Duration
	log      zerolog.Logger
}

func NewSweeper(target Sweepable, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		target:   target,
		interval: interval,
		log:      log.With().Str("service", "sweeper").Logger(),
	}
}

// Run blocks until ctx is cancelled. The process lifecycle owns the context
// and cancels it before the final persist on shutdown.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.target.SweepExpired(ctx); n > 0 {
				s.log.Info().Int("removed", n).Msg("swept expired sessions")
			}
		}
	}
}
