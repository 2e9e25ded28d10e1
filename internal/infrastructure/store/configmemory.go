package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/renderconfig"
)

// MemoryConfigRepo is a mutex-based in-memory render config repository.
type MemoryConfigRepo struct {
	mu   sync.RWMutex
	docs map[string]renderconfig.Document
	log  zerolog.Logger
}

// NewMemoryConfigRepo creates a new in-memory config repository.
func NewMemoryConfigRepo(log zerolog.Logger) *MemoryConfigRepo {
	return &MemoryConfigRepo{
		docs: make(map[string]renderconfig.Document),
		log:  log.With().Str("component", "config-store").Logger(),
	}
}

// Load returns the user's document, or ErrConfigNotFound when the user has
// never saved one.
func (r *MemoryConfigRepo) Load(ctx context.Context, user string) (renderconfig.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[user]
	if !ok {
		return renderconfig.Document{}, renderconfig.ErrConfigNotFound
	}
	return doc, nil
}

// Save creates or replaces the user's document.
func (r *MemoryConfigRepo) Save(ctx context.Context, user string, doc renderconfig.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[user] = doc
	return nil
}
