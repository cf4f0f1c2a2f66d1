package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lenterailmu/ujian-backend/internal/repository"
)

// ExpirySweeper periodically formalizes expired sessions in the database.
// Reads already resolve expiry lazily, the sweep only keeps stored rows and
// dashboards from drifting too far behind the clock.
type ExpirySweeper struct {
	sessions *repository.SessionRepository
	interval time.Duration
	log      zerolog.Logger
}

// NewExpirySweeper creates a new ExpirySweeper.
func NewExpirySweeper(sessions *repository.SessionRepository, interval time.Duration, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		sessions: sessions,
		interval: interval,
		log:      log.With().Str("component", "expiry_sweeper").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *ExpirySweeper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpirySweeper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpirySweeper stopped")
			return
		case <-ticker.C:
			n, err := w.sessions.MarkOverdueExpired(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("Expiry sweep failed")
				continue
			}
			if n > 0 {
				w.log.Info().Int64("count", n).Msg("Formalized overdue sessions")
			}
		}
	}
}
