// Package commands parses chat command lines and routes them to the run
// service. It is transport-agnostic: platform adapters feed it the text and
// files they receive and it answers through the same conversation.
package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/agent"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

const helpText = "Commands: start, respack, submit, progress, cancel, runs [page] [limit], config [property] [value]"

const failureText = "Request failed, please try again later."

// Dispatcher routes parsed commands to the run service.
type Dispatcher struct {
	svc       *agent.Service
	transport transport.Transport
	log       zerolog.Logger
}

func NewDispatcher(svc *agent.Service, tr transport.Transport, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		svc:       svc,
		transport: tr,
		log:       log.With().Str("component", "command-dispatcher").Logger(),
	}
}

// Handle executes one command line for a user. User-facing failures (unknown
// command, validation, conflicts) are answered in the conversation and do not
// surface as errors; internal failures answer with a generic notice and still
// surface to the adapter.
func (d *Dispatcher) Handle(ctx context.Context, user string, conv transport.ConversationRef, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return d.reply(ctx, conv, helpText)
	}

	var err error
	switch strings.ToLower(fields[0]) {
	case "start", "render":
		err = d.svc.Start(ctx, user, conv)
		if platformerrors.IsConflict(err) {
			if replyErr := d.reply(ctx, conv, userMessage(err)); replyErr != nil {
				return replyErr
			}
			// Redirect to the active run, as if the user asked for progress.
			err = d.svc.Progress(ctx, user, conv)
			if platformerrors.IsNotFound(err) {
				err = nil
			}
		}
	case "respack", "res", "resource-pack":
		err = d.svc.RequestResourcePack(ctx, user, conv)
	case "submit", "confirm":
		err = d.svc.Submit(ctx, user, conv)
	case "progress":
		err = d.svc.Progress(ctx, user, conv)
	case "cancel":
		err = d.svc.CancelActive(ctx, user, conv)
	case "runs", "history":
		page, limit := parsePaging(fields[1:])
		err = d.svc.History(ctx, user, conv, page, limit)
	case "config":
		property, value := "", ""
		if len(fields) > 1 {
			property = fields[1]
		}
		if len(fields) > 2 {
			value = strings.Join(fields[2:], " ")
		}
		err = d.svc.Config(ctx, user, conv, property, value)
	default:
		return d.reply(ctx, conv, helpText)
	}

	if err == nil {
		return nil
	}
	if isUserFacing(err) {
		return d.reply(ctx, conv, userMessage(err))
	}
	// Internal failures (remote service down, transport errors) still get a
	// generic notice so the user is never left without an answer.
	d.log.Error().Err(err).Str("user", user).Str("command", fields[0]).Msg("command failed")
	if replyErr := d.reply(ctx, conv, failureText); replyErr != nil {
		d.log.Error().Err(replyErr).Str("user", user).Msg("failed to send failure notice")
	}
	return err
}

// HandleFile records a file arriving from the user. Files sent outside a
// pending request are ignored, matching how a chat room full of unrelated
// attachments behaves.
func (d *Dispatcher) HandleFile(ctx context.Context, user string, conv transport.ConversationRef, ref run.FileRef) error {
	err := d.svc.AttachFile(ctx, user, conv, ref)
	if platformerrors.IsNotFound(err) {
		return nil
	}
	return err
}

func (d *Dispatcher) reply(ctx context.Context, conv transport.ConversationRef, text string) error {
	return d.transport.Send(ctx, conv, text)
}

func parsePaging(args []string) (page, limit int) {
	page, limit = 1, 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			page = n
		}
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			limit = n
		}
	}
	return page, limit
}

func isUserFacing(err error) bool {
	return platformerrors.IsNotFound(err) ||
		platformerrors.IsConflict(err) ||
		platformerrors.IsValidation(err) ||
		platformerrors.IsType(err, platformerrors.ErrorTypeUnknownProperty)
}

func userMessage(err error) string {
	var perr *platformerrors.PlatformError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}
