package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/relay"
	"github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/infrastructure/metrics"
)

// Router consumes the shared push stream, validates each event against the
// room store and dispatches notifications to the correct conversation.
// Events are processed sequentially, preserving per-user ordering; stale or
// mismatched events are expected noise and dropped without error.
type Router struct {
	stream    Stream
	rooms     room.Store
	jobs      JobClient
	relay     *relay.Relay
	transport transport.Transport
	opTimeout time.Duration
	log       zerolog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRouter creates the event router. opTimeout bounds every external call
// made while handling a single event.
func NewRouter(
	stream Stream,
	rooms room.Store,
	jobs JobClient,
	artifactRelay *relay.Relay,
	tr transport.Transport,
	opTimeout time.Duration,
	log zerolog.Logger,
) *Router {
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	return &Router{
		stream:    stream,
		rooms:     rooms,
		jobs:      jobs,
		relay:     artifactRelay,
		transport: tr,
		opTimeout: opTimeout,
		log:       log.With().Str("component", "event-router").Logger(),
		done:      make(chan struct{}),
	}
}

// Start begins the dispatch loop in the background. Safe to call multiple
// times; only the first call starts it.
func (r *Router) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.loop(ctx)
		r.log.Info().Msg("event router started")
	})
}

// Stop shuts the dispatch loop down and waits for the in-flight event to
// finish. Safe to call multiple times.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.log.Info().Msg("event router stopped")
	})
}

func (r *Router) loop(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case ev, ok := <-r.stream.Events():
			if !ok {
				r.log.Warn().Msg("event stream closed")
				return
			}
			metrics.EventsReceived.Inc()
			r.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent processes one status event through the full validate, update,
// dispatch sequence. Exported so the reconciler can route the statuses it
// discovers through the same path.
func (r *Router) HandleEvent(ctx context.Context, ev run.StatusEvent) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	record, ok := room.Validate(ctx, r.rooms, ev.Address)
	if !ok {
		metrics.EventsDropped.Inc()
		r.log.Debug().Str("target", ev.Address.String()).Str("status", string(ev.Status)).
			Msg("dropped event for unknown or stale room")
		return
	}

	previous := record.Payload.Status
	payload := room.Payload{Status: ev.Status, Progress: ev.Progress, ETA: ev.ETA}
	if err := r.rooms.UpdatePayload(ctx, ev.Address.User, payload); err != nil {
		r.log.Error().Err(err).Str("target", ev.Address.String()).Msg("failed to update room payload")
	}
	metrics.EventsDispatched.WithLabelValues(string(ev.Status)).Inc()

	switch {
	case ev.Status == run.StatusInitializing:
		if previous != run.StatusInitializing {
			r.notify(ctx, record.Conversation, fmt.Sprintf(
				"Request %q is now being processed. You will be notified when it finishes; the progress command shows live status.",
				ev.Address.JobID))
		}
	case ev.Status.IsTerminal():
		r.finish(ctx, record, ev)
	default:
		// Intermediate phases update the room passively; progress is
		// available on demand through the query path.
	}
}

// finish handles a terminal event: notify, relay artifacts for completed
// runs, then retire the room. Relay failures never block retirement.
func (r *Router) finish(ctx context.Context, record room.Record, ev run.StatusEvent) {
	jobID := ev.Address.JobID

	if ev.Status == run.StatusCompleted {
		details, err := r.jobs.Get(ctx, jobID, record.User)
		if err != nil {
			r.log.Error().Err(err).Str("target", ev.Address.String()).Msg("failed to fetch finished run")
			r.notify(ctx, record.Conversation, fmt.Sprintf("Request %q finished: %s.", jobID, ev.Status.Label()))
		} else {
			r.notify(ctx, record.Conversation, completedNotice(jobID, details))
			delivered := r.relay.Deliver(ctx, record.Conversation, jobID, details.OutputFiles)
			metrics.ArtifactsRelayed.Add(float64(delivered))
		}
	} else {
		r.notify(ctx, record.Conversation, fmt.Sprintf("Request %q finished: %s.", jobID, ev.Status.Label()))
	}

	if err := r.rooms.Delete(ctx, record.User); err != nil {
		r.log.Error().Err(err).Str("user", record.User).Msg("failed to retire room record")
		return
	}
	metrics.ActiveRooms.Dec()
	r.log.Info().Str("target", ev.Address.String()).Str("status", string(ev.Status)).Msg("retired room")
}

func (r *Router) notify(ctx context.Context, conv transport.ConversationRef, text string) {
	if err := r.transport.Send(ctx, conv, text); err != nil {
		r.log.Error().Err(err).Msg("failed to send notice")
	}
}

func completedNotice(jobID string, details run.Details) string {
	text := fmt.Sprintf("Request %q finished: %s.\nResults:\n", jobID, run.StatusCompleted.Label())
	for _, file := range details.OutputFiles {
		text += fmt.Sprintf("- %s\n  %s\n", file.DisplayName(jobID), file.URL)
	}
	return text + "The files above will be sent to this chat shortly."
}
