// Package transport declares the contract the run core needs from the chat
// platform. Adapters live outside this module.
package transport

import (
	"context"

	"github.com/phizone/player-agent/internal/domain/run"
)

// ConversationRef locates the chat conversation a notification or upload
// should be delivered to.
type ConversationRef struct {
	ChatID  string `json:"chatId"`
	Private bool   `json:"private"`
}

// Transport is the chat platform seen from the core. Implementations must
// bound every call with the context deadline; a timeout surfaces as an error,
// never as a hang.
type Transport interface {
	// ResolveFileURL turns an opaque file handle into a durable download URL.
	ResolveFileURL(ctx context.Context, ref run.FileRef) (string, error)

	// Send delivers a text notice to a conversation.
	Send(ctx context.Context, conv ConversationRef, text string) error

	// UploadFile uploads a local file into a conversation under displayName.
	UploadFile(ctx context.Context, conv ConversationRef, localPath, displayName string) error
}
