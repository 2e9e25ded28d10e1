// Package chatlog is a stand-in chat transport that writes every outgoing
// notice to the log. Real deployments embed the agent behind a platform
// transport; chatlog keeps the binary runnable without one.
package chatlog

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// Transport logs notices and uploads instead of delivering them.
type Transport struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Transport {
	return &Transport{log: log.With().Str("component", "chat-log").Logger()}
}

// ResolveFileURL accepts file handles that already are URLs; anything else
// needs a real platform transport to resolve.
func (t *Transport) ResolveFileURL(_ context.Context, ref run.FileRef) (string, error) {
	if strings.HasPrefix(ref.FileID, "http://") || strings.HasPrefix(ref.FileID, "https://") {
		return ref.FileID, nil
	}
	return "", platformerrors.NewError(platformerrors.LayerInfrastructure,
		platformerrors.ErrorTypeTransport, "file handle is not a URL", nil)
}

func (t *Transport) Send(_ context.Context, conv transport.ConversationRef, text string) error {
	t.log.Info().Str("chat", conv.ChatID).Bool("private", conv.Private).Str("text", text).Msg("notice")
	return nil
}

func (t *Transport) UploadFile(_ context.Context, conv transport.ConversationRef, localPath, displayName string) error {
	t.log.Info().Str("chat", conv.ChatID).Str("path", localPath).Str("name", displayName).Msg("upload")
	return nil
}
