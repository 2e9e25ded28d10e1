package run

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrSessionExists is returned when a user already has an open draft.
	ErrSessionExists = errors.New("pending session already exists")
	// ErrNoSession is returned when operating on an absent draft.
	ErrNoSession = errors.New("no pending session")
)

// Registry is the process-local table of in-flight, not-yet-submitted run
// drafts, keyed by user. Drafts are memory-only: a restart loses them, which
// is acceptable since they represent an incomplete user interaction.
// Thread-safe via sync.Mutex; every mutation is atomic per user.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*PendingSession
	log      zerolog.Logger
}

// NewRegistry creates an empty pending-session registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*PendingSession),
		log:      log.With().Str("component", "pending-registry").Logger(),
	}
}

// Begin opens an empty draft for the user. Fails with ErrSessionExists if one
// is already open; the caller resolves the conflict (it never overwrites).
func (r *Registry) Begin(user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[user]; exists {
		return ErrSessionExists
	}
	r.sessions[user] = &PendingSession{User: user}
	r.log.Debug().Str("user", user).Msg("opened pending session")
	return nil
}

// RecordFile attaches a file to the user's draft. When the draft is expecting
// a resource pack the file fills that slot and the flag clears; otherwise it
// is appended to the chart files in arrival order.
func (r *Registry) RecordFile(user string, ref FileRef) (asResourcePack bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[user]
	if !ok {
		return false, ErrNoSession
	}
	if sess.ExpectResourcePack {
		file := ref
		sess.ResourcePack = &file
		sess.ExpectResourcePack = false
		return true, nil
	}
	sess.ChartFiles = append(sess.ChartFiles, ref)
	return false, nil
}

// ExpectResourcePack marks the draft so the next recorded file lands in the
// resource-pack slot instead of the chart list.
func (r *Registry) ExpectResourcePack(user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[user]
	if !ok {
		return ErrNoSession
	}
	sess.ExpectResourcePack = true
	return nil
}

// ClearExpectResourcePack resets the resource-pack flag without touching the
// rest of the draft.
func (r *Registry) ClearExpectResourcePack(user string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[user]
	if !ok {
		return ErrNoSession
	}
	sess.ExpectResourcePack = false
	return nil
}

// Peek returns a copy of the user's draft without consuming it.
func (r *Registry) Peek(user string) (PendingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[user]
	if !ok {
		return PendingSession{}, ErrNoSession
	}
	return copySession(sess), nil
}

// Take atomically removes and returns the draft. Two racing submissions can
// never both consume the same draft.
func (r *Registry) Take(user string) (PendingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[user]
	if !ok {
		return PendingSession{}, ErrNoSession
	}
	delete(r.sessions, user)
	r.log.Debug().Str("user", user).Int("chart_files", len(sess.ChartFiles)).Msg("took pending session")
	return copySession(sess), nil
}

// Abandon drops the user's draft if one exists.
func (r *Registry) Abandon(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, user)
}

// Has reports whether the user currently holds a draft.
func (r *Registry) Has(user string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[user]
	return ok
}

func copySession(sess *PendingSession) PendingSession {
	out := PendingSession{
		User:               sess.User,
		ExpectResourcePack: sess.ExpectResourcePack,
		ChartFiles:         append([]FileRef(nil), sess.ChartFiles...),
	}
	if sess.ResourcePack != nil {
		pack := *sess.ResourcePack
		out.ResourcePack = &pack
	}
	return out
}
