package agent

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/infrastructure/metrics"
)

// Reconciler compensates for gaps in the push stream. It periodically polls
// the remote service for every live room and routes the observed status
// through the same dispatch path as pushed events, so a run whose terminal
// event was lost (socket reconnect, agent restart) still gets delivered and
// retired.
type Reconciler struct {
	rooms    room.Store
	jobs     JobClient
	router   *Router
	interval time.Duration
	log      zerolog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewReconciler creates the room reconciler.
func NewReconciler(
	rooms room.Store,
	jobs JobClient,
	router *Router,
	interval time.Duration,
	log zerolog.Logger,
) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{
		rooms:    rooms,
		jobs:     jobs,
		router:   router,
		interval: interval,
		log:      log.With().Str("component", "room-reconciler").Logger(),
		done:     make(chan struct{}),
	}
}

// Start begins the reconcile loop in the background. Safe to call multiple
// times; only the first call starts it.
func (r *Reconciler) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.run(ctx)
		r.log.Info().Dur("interval", r.interval).Msg("room reconciler started")
	})
}

// Stop shuts the reconcile loop down and waits for the in-flight sweep to
// finish. Safe to call multiple times.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.log.Info().Msg("room reconciler stopped")
	})
}

func (r *Reconciler) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug().Msg("context cancelled, shutting down reconciler")
			return
		case <-r.done:
			r.log.Debug().Msg("done signal received, shutting down reconciler")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep polls the remote status of every live room once and routes what it
// finds. Exported so startup can run an immediate pass before the first tick.
func (r *Reconciler) Sweep(ctx context.Context) {
	records, err := r.rooms.List(ctx)
	if err != nil {
		metrics.ReconcileErrors.Inc()
		r.log.Error().Err(err).Msg("failed to list rooms")
		return
	}

	for _, record := range records {
		if record.Payload.Status.IsTerminal() {
			// A terminal payload means retirement is already in flight.
			continue
		}

		info, err := r.jobs.Progress(ctx, record.Address.JobID, record.User)
		if err != nil {
			metrics.ReconcileErrors.Inc()
			r.log.Warn().Err(err).Str("target", record.Address.String()).
				Msg("failed to poll run status")
			continue
		}
		if info.Status == record.Payload.Status {
			continue
		}

		r.log.Info().Str("target", record.Address.String()).
			Str("from", string(record.Payload.Status)).
			Str("to", string(info.Status)).
			Msg("reconciling room status")
		r.router.HandleEvent(ctx, run.StatusEvent{
			Address:  record.Address,
			Status:   info.Status,
			Progress: info.Progress,
			ETA:      info.ETA,
		})
	}
}
