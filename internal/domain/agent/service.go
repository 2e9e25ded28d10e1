package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/renderconfig"
	"github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/infrastructure/metrics"
	"github.com/phizone/player-agent/internal/utils/format"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

const (
	maxHistoryPageSize     = 5
	defaultHistoryPageSize = 3
)

const startInstructions = "You are starting a new render request.\n" +
	"First, send the chart files (a ZIP archive, or chart, track and illustration files one by one).\n" +
	"To use a custom resource pack, issue the resource-pack command and upload one ZIP.\n" +
	"Adjust the render configuration with the config command if needed.\n" +
	"When everything is ready, submit the request."

// Service coordinates the run-session lifecycle: draft assembly, submission
// to the remote service, progress queries, cancellation and history.
type Service struct {
	registry  *run.Registry
	rooms     room.Store
	configs   *renderconfig.Service
	jobs      JobClient
	stream    Stream
	transport transport.Transport
	log       zerolog.Logger
}

// NewService creates the coordinator.
func NewService(
	registry *run.Registry,
	rooms room.Store,
	configs *renderconfig.Service,
	jobs JobClient,
	stream Stream,
	tr transport.Transport,
	log zerolog.Logger,
) *Service {
	return &Service{
		registry:  registry,
		rooms:     rooms,
		configs:   configs,
		jobs:      jobs,
		stream:    stream,
		transport: tr,
		log:       log.With().Str("component", "run-service").Logger(),
	}
}

// Start opens a new draft for the user and sends the assembly instructions.
// An active remote run or an existing draft is a conflict; the caller should
// redirect the user to the progress flow instead of overwriting anything.
func (s *Service) Start(ctx context.Context, user string, conv transport.ConversationRef) error {
	runs, total, err := s.jobs.List(ctx, user, 1, 1)
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "check active runs")
	}
	if total > 0 && len(runs) > 0 && !runs[0].Completed() {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"a request is already being processed", nil)
	}

	if err := s.registry.Begin(user); err != nil {
		if errors.Is(err, run.ErrSessionExists) {
			return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
				"a request is already being assembled", err)
		}
		return platformerrors.AsError(platformerrors.LayerDomain, err, "begin pending session")
	}

	if err := s.transport.Send(ctx, conv, startInstructions); err != nil {
		s.log.Error().Err(err).Str("user", user).Msg("failed to send start instructions")
	}
	return nil
}

// AttachFile records a file arriving from the user's conversation into their
// draft and acknowledges it.
func (s *Service) AttachFile(ctx context.Context, user string, conv transport.ConversationRef, ref run.FileRef) error {
	asPack, err := s.registry.RecordFile(user, ref)
	if err != nil {
		if errors.Is(err, run.ErrNoSession) {
			return notFoundError("no pending request, start one first", err)
		}
		return platformerrors.AsError(platformerrors.LayerDomain, err, "record file")
	}

	notice := fmt.Sprintf("Chart file added: %s", ref.Name)
	if asPack {
		notice = fmt.Sprintf("Resource pack set: %s", ref.Name)
	}
	if err := s.transport.Send(ctx, conv, notice); err != nil {
		s.log.Error().Err(err).Str("user", user).Msg("failed to acknowledge file")
	}
	return nil
}

// RequestResourcePack routes the user's next file into the resource-pack slot.
func (s *Service) RequestResourcePack(ctx context.Context, user string, conv transport.ConversationRef) error {
	if err := s.registry.ExpectResourcePack(user); err != nil {
		if errors.Is(err, run.ErrNoSession) {
			return notFoundError("no pending request, start one first", err)
		}
		return platformerrors.AsError(platformerrors.LayerDomain, err, "expect resource pack")
	}

	if err := s.transport.Send(ctx, conv, "Please send one resource pack ZIP."); err != nil {
		s.log.Error().Err(err).Str("user", user).Msg("failed to request resource pack")
	}
	return nil
}

// Submit converts the user's draft into a remote run.
//
// The draft is validated before it is consumed, so an empty submission leaves
// it intact. Once taken, however, the draft is never restored: URL resolution
// is not idempotent across retries, so a failed submission requires starting
// over.
func (s *Service) Submit(ctx context.Context, user string, conv transport.ConversationRef) error {
	draft, err := s.registry.Peek(user)
	if err != nil {
		if errors.Is(err, run.ErrNoSession) {
			return notFoundError("no pending request, start one first", err)
		}
		return platformerrors.AsError(platformerrors.LayerDomain, err, "read pending session")
	}
	if len(draft.ChartFiles) == 0 {
		// Keep the draft so the user can attach files; an armed resource-pack
		// flag is cleared to avoid swallowing the next chart file.
		_ = s.registry.ClearExpectResourcePack(user)
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"at least one chart file is required", nil)
	}

	doc, err := s.configs.Document(ctx, user)
	if err != nil {
		return err
	}

	draft, err = s.registry.Take(user)
	if err != nil {
		// Lost the race against a concurrent submit trigger.
		return notFoundError("request already submitted", err)
	}

	s.sendSummary(ctx, conv, draft, doc)

	sub, err := s.resolveSubmission(ctx, user, draft, doc)
	if err != nil {
		return err
	}

	receipt, err := s.jobs.Create(ctx, sub)
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "create run")
	}

	record := room.Record{
		User:         user,
		Address:      receipt.Address,
		Conversation: conv,
		Payload:      room.Payload{Status: run.StatusQueued},
	}
	if err := s.rooms.Put(ctx, record); err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "persist room record")
	}
	metrics.RunsSubmitted.Inc()
	metrics.ActiveRooms.Inc()

	if err := s.stream.Join(ctx, receipt.Address); err != nil {
		// The reconciler will still observe this run; log and continue.
		s.log.Error().Err(err).Str("target", receipt.Address.String()).Msg("failed to join event stream")
	}

	notice := fmt.Sprintf("Request %q submitted.\nQueue size: %d\nQueue time: at least %s",
		receipt.Address.JobID, receipt.QueueSize, format.Duration(receipt.QueueTime))
	if err := s.transport.Send(ctx, conv, notice); err != nil {
		s.log.Error().Err(err).Str("user", user).Msg("failed to send submission receipt")
	}

	s.log.Info().Str("user", user).Str("target", receipt.Address.String()).Msg("submitted run")
	return nil
}

// Progress reports the user's active run, fetching live progress for runs
// past the queue.
func (s *Service) Progress(ctx context.Context, user string, conv transport.ConversationRef) error {
	active, err := s.activeRun(ctx, user)
	if err != nil {
		return err
	}

	switch active.Status {
	case run.StatusQueued:
		notice := fmt.Sprintf("Request %q\nStatus: %s", active.ID, run.StatusQueued.Label())
		return s.sendOrLog(ctx, conv, user, notice)
	default:
		info, err := s.jobs.Progress(ctx, active.ID, user)
		if err != nil {
			return platformerrors.AsError(platformerrors.LayerDomain, err, "fetch run progress")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Request %q\nStatus: %s", active.ID, info.Status.Label())
		if info.Progress > 0 {
			fmt.Fprintf(&b, "\nProgress: %s", format.Percent(info.Progress))
		}
		if info.ETA > 0 {
			fmt.Fprintf(&b, "\nETA: %s", format.Duration(info.ETA))
		}
		return s.sendOrLog(ctx, conv, user, b.String())
	}
}

// CancelActive requests cancellation of the user's active run.
func (s *Service) CancelActive(ctx context.Context, user string, conv transport.ConversationRef) error {
	active, err := s.activeRun(ctx, user)
	if err != nil {
		return err
	}

	if err := s.jobs.Cancel(ctx, active.ID, user); err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "cancel run")
	}
	return s.sendOrLog(ctx, conv, user, fmt.Sprintf("Requested cancellation of %q.", active.ID))
}

// History sends a page of the user's past runs with their output links.
func (s *Service) History(ctx context.Context, user string, conv transport.ConversationRef, page, limit int) error {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryPageSize
	}
	if limit > maxHistoryPageSize {
		limit = maxHistoryPageSize
	}

	runs, total, err := s.jobs.List(ctx, user, page, limit)
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "list runs")
	}
	if total == 0 {
		return s.sendOrLog(ctx, conv, user, "Request history is empty.")
	}
	if len(runs) == 0 {
		return s.sendOrLog(ctx, conv, user, "No results on this page.")
	}

	pages := int(math.Ceil(float64(total) / float64(limit)))
	var b strings.Builder
	fmt.Fprintf(&b, "Request history (page %d of %d):\n", page, pages)
	for i, item := range runs {
		fmt.Fprintf(&b, "\n%d. [%s] %q\n", i+1+(page-1)*limit, item.Status.Label(), item.ID)
		if len(item.OutputFiles) == 0 {
			b.WriteString("no results\n")
			continue
		}
		for _, file := range item.OutputFiles {
			fmt.Fprintf(&b, "- %s\n  %s\n", file.DisplayName(item.ID), file.URL)
		}
	}
	return s.sendOrLog(ctx, conv, user, b.String())
}

// Config executes a config command: no property shows the summary, a property
// without a value reads or toggles, a property with a value sets it.
func (s *Service) Config(ctx context.Context, user string, conv transport.ConversationRef, property, value string) error {
	if property == "" {
		doc, err := s.configs.Document(ctx, user)
		if err != nil {
			return err
		}
		return s.sendOrLog(ctx, conv, user, renderconfig.Summary(doc))
	}

	result, err := s.configs.Apply(ctx, user, property, value)
	if err != nil {
		return err
	}

	notice := fmt.Sprintf("Current %q value: %s", result.Path, result.Display())
	if result.Changed {
		notice = fmt.Sprintf("Set %q to: %s", result.Path, result.Display())
	}
	return s.sendOrLog(ctx, conv, user, notice)
}

// activeRun returns the user's latest uncompleted run or a NOT_FOUND error.
func (s *Service) activeRun(ctx context.Context, user string) (run.Details, error) {
	runs, total, err := s.jobs.List(ctx, user, 1, 1)
	if err != nil {
		return run.Details{}, platformerrors.AsError(platformerrors.LayerDomain, err, "list runs")
	}
	if total == 0 || len(runs) == 0 || runs[0].Completed() {
		return run.Details{}, notFoundError("no active request", nil)
	}
	return runs[0], nil
}

func (s *Service) resolveSubmission(ctx context.Context, user string, draft run.PendingSession, doc renderconfig.Document) (run.Submission, error) {
	input := run.Input{ChartFiles: make([]string, 0, len(draft.ChartFiles))}
	for _, ref := range draft.ChartFiles {
		url, err := s.transport.ResolveFileURL(ctx, ref)
		if err != nil {
			// Partial resolution is never committed; the whole submission aborts.
			return run.Submission{}, platformerrors.NewErrorWithContext(
				platformerrors.LayerDomain, platformerrors.ErrorTypeTransport,
				fmt.Sprintf("failed to resolve file %q", ref.Name), err,
				map[string]any{"user": user, "file": ref.Name})
		}
		input.ChartFiles = append(input.ChartFiles, url)
	}
	if draft.ResourcePack != nil {
		url, err := s.transport.ResolveFileURL(ctx, *draft.ResourcePack)
		if err != nil {
			return run.Submission{}, platformerrors.NewErrorWithContext(
				platformerrors.LayerDomain, platformerrors.ErrorTypeTransport,
				fmt.Sprintf("failed to resolve resource pack %q", draft.ResourcePack.Name), err,
				map[string]any{"user": user, "file": draft.ResourcePack.Name})
		}
		input.ResourcePack = url
	}

	return run.Submission{
		Input:        input,
		User:         user,
		MediaOptions: sectionMap(doc.MediaOptions),
		Preferences:  sectionMap(doc.Preferences),
		Toggles:      sectionMap(doc.Toggles),
	}, nil
}

func (s *Service) sendSummary(ctx context.Context, conv transport.ConversationRef, draft run.PendingSession, doc renderconfig.Document) {
	names := make([]string, len(draft.ChartFiles))
	for i, ref := range draft.ChartFiles {
		names[i] = ref.Name
	}
	pack := "default resource pack"
	if draft.ResourcePack != nil {
		pack = draft.ResourcePack.Name
	}
	text := fmt.Sprintf("Render request summary\n\nChart files: %s\n\nResource pack: %s\n\n%s",
		strings.Join(names, ", "), pack, renderconfig.Summary(doc))
	if err := s.transport.Send(ctx, conv, text); err != nil {
		s.log.Error().Err(err).Str("user", draft.User).Msg("failed to send request summary")
	}
}

func (s *Service) sendOrLog(ctx context.Context, conv transport.ConversationRef, user, text string) error {
	if err := s.transport.Send(ctx, conv, text); err != nil {
		s.log.Error().Err(err).Str("user", user).Msg("failed to send notice")
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeTransport,
			"failed to deliver notice", err)
	}
	return nil
}

// sectionMap converts a config section struct into the generic JSON shape the
// remote API expects.
func sectionMap(section any) map[string]any {
	data, err := json.Marshal(section)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func notFoundError(message string, err error) error {
	return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, message, err)
}
