// Package room defines the durable routing record binding a user to their
// currently active run and its origin conversation.
package room

import (
	"context"
	"errors"

	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
)

// ErrRoomNotFound is returned when no room record exists for a user.
var ErrRoomNotFound = errors.New("room not found")

// Payload is the last known status snapshot for a room's run.
type Payload struct {
	Status   run.Status `json:"status"`
	Progress float64    `json:"progress"`
	ETA      int64      `json:"eta"`
}

// Record is the durable, one-per-user mapping from a user to their active run
// address and the conversation to notify. A new submission replaces any prior
// record for that user (last-write-wins).
type Record struct {
	User         string
	Address      run.JobAddress
	Conversation transport.ConversationRef
	Payload      Payload
}

// Store persists room records. Reads and writes are atomic per user key;
// users never share a record so no cross-user coordination is needed.
type Store interface {
	// Put creates or replaces the record for record.User.
	Put(ctx context.Context, record Record) error

	// Get retrieves the record for a user, or ErrRoomNotFound.
	Get(ctx context.Context, user string) (Record, error)

	// UpdatePayload partially updates the record's payload. A missing record
	// is a no-op: a late event for a retired room is simply dropped.
	UpdatePayload(ctx context.Context, user string, payload Payload) error

	// Delete retires the record for a user. Deleting an absent record is not
	// an error.
	Delete(ctx context.Context, user string) error

	// List returns all live records, for re-subscription and reconciliation.
	List(ctx context.Context) ([]Record, error)
}

// Validate checks an incoming event address against the stored room for the
// user it claims to belong to. It returns the record only when namespace,
// user and job id all match the stored triple; anything else is expected
// noise on the shared channel (stale subscriptions, concurrent users, forged
// targets) and yields no match.
func Validate(ctx context.Context, store Store, addr run.JobAddress) (Record, bool) {
	record, err := store.Get(ctx, addr.User)
	if err != nil {
		return Record{}, false
	}
	if !record.Address.Equal(addr) {
		return Record{}, false
	}
	return record, true
}
