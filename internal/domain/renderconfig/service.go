package renderconfig

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// ErrConfigNotFound is returned by repositories when a user has no stored
// document yet.
var ErrConfigNotFound = errors.New("render config not found")

// Repository persists render configuration documents keyed by user.
type Repository interface {
	Load(ctx context.Context, user string) (Document, error)
	Save(ctx context.Context, user string, doc Document) error
}

// ApplyResult describes the outcome of a config command.
type ApplyResult struct {
	Path  string
	Kind  Kind
	Value any
	// Changed is false when the command only read the current value.
	Changed bool
}

// Display renders the result value for a user notice.
func (r ApplyResult) Display() string {
	return DisplayValue(r.Kind, r.Value)
}

// Service owns per-user configuration documents: lazy creation with defaults,
// validated mutation and write-back after every successful change.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService creates a configuration service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "render-config").Logger(),
	}
}

// Document returns the user's configuration, creating and persisting the
// defaults on first access.
func (s *Service) Document(ctx context.Context, user string) (Document, error) {
	doc, err := s.repo.Load(ctx, user)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return Document{}, platformerrors.AsError(platformerrors.LayerDomain, err, "load render config")
	}

	doc = Defaults()
	if err := s.repo.Save(ctx, user, doc); err != nil {
		return Document{}, platformerrors.AsError(platformerrors.LayerDomain, err, "initialize render config")
	}
	s.log.Info().Str("user", user).Msg("created default render config")
	return doc, nil
}

// Apply executes one config command against the user's document.
//
// With a value, the path's leaf is validated and set. Without a value, a
// boolean leaf is flipped and any other leaf is read back unchanged. The
// stored document is only written after a successful mutation.
func (s *Service) Apply(ctx context.Context, user, path, value string) (ApplyResult, error) {
	prop, err := Lookup(path)
	if err != nil {
		return ApplyResult{}, err
	}

	doc, err := s.Document(ctx, user)
	if err != nil {
		return ApplyResult{}, err
	}

	if value == "" {
		if prop.Kind != KindBool {
			current, err := Get(doc, path)
			if err != nil {
				return ApplyResult{}, err
			}
			return ApplyResult{Path: path, Kind: prop.Kind, Value: current}, nil
		}

		next, flipped, err := Toggle(doc, path)
		if err != nil {
			return ApplyResult{}, err
		}
		if err := s.repo.Save(ctx, user, next); err != nil {
			return ApplyResult{}, platformerrors.AsError(platformerrors.LayerDomain, err, "save render config")
		}
		return ApplyResult{Path: path, Kind: prop.Kind, Value: flipped, Changed: true}, nil
	}

	next, parsed, err := Set(doc, path, value)
	if err != nil {
		return ApplyResult{}, err
	}
	if err := s.repo.Save(ctx, user, next); err != nil {
		return ApplyResult{}, platformerrors.AsError(platformerrors.LayerDomain, err, "save render config")
	}
	s.log.Debug().Str("user", user).Str("path", path).Msg("updated render config")
	return ApplyResult{Path: path, Kind: prop.Kind, Value: parsed, Changed: true}, nil
}
