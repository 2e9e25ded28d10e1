// Package agent wires the run-session lifecycle together: the submission
// coordinator that turns pending drafts into remote runs, and the event
// router that demultiplexes the shared push stream back to conversations.
package agent

import (
	"context"

	"github.com/phizone/player-agent/internal/domain/run"
)

// JobClient is the typed contract over the remote run API. Every call is
// bounded by its context; non-success responses surface as REMOTE_SERVICE
// platform errors.
type JobClient interface {
	// List returns a page of the user's runs, newest first, plus the total.
	List(ctx context.Context, user string, page, limit int) ([]run.Details, int, error)

	// Get fetches the full details of one run, including output files.
	Get(ctx context.Context, jobID, user string) (run.Details, error)

	// Create submits a new run and returns its address and queue stats.
	Create(ctx context.Context, sub run.Submission) (run.Receipt, error)

	// Progress fetches the live progress of an in-flight run.
	Progress(ctx context.Context, jobID, user string) (run.ProgressInfo, error)

	// Cancel requests cancellation of a run.
	Cancel(ctx context.Context, jobID, user string) error
}

// Stream is the shared push-notification channel. One subscription serves all
// users; Join subscribes a job address, Events yields validated-shape status
// events in arrival order.
type Stream interface {
	// Join subscribes the given address, once per new submission.
	Join(ctx context.Context, addr run.JobAddress) error

	// Events returns the inbound event sequence. The channel is closed when
	// the stream shuts down.
	Events() <-chan run.StatusEvent
}
