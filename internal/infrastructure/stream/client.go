// Package stream maintains the shared socket.io connection to the remote
// render service and turns its pushed status messages into typed events.
package stream

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	socket "github.com/zishang520/socket.io/clients/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// Client is the socket.io event stream. One connection is shared by all
// subscriptions: Join registers interest in a job address, and every pushed
// "message" is decoded and delivered in arrival order on Events.
type Client struct {
	serverURL string
	log       zerolog.Logger

	mu        sync.RWMutex
	socket    *socket.Socket
	onConnect func()

	events    chan run.StatusEvent
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a stream client. Connect must be called before Join.
func New(serverURL string, log zerolog.Logger) *Client {
	return &Client{
		serverURL: serverURL,
		log:       log.With().Str("component", "event-stream").Logger(),
		events:    make(chan run.StatusEvent, 64),
		done:      make(chan struct{}),
	}
}

// OnConnect registers a callback invoked every time the socket (re)connects.
// Subscriptions do not survive a reconnect, so the callback should rejoin
// every live job address.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

// Connect establishes the socket.io connection and installs the event
// handlers. The underlying client reconnects on its own; Connect only fails
// when the initial dial cannot start at all.
func (c *Client) Connect(_ context.Context) error {
	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(socket.Polling, socket.WebSocket))

	sock, err := socket.Connect(c.serverURL, opts)
	if err != nil {
		return platformerrors.NewError(platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeTransport, "failed to connect to event stream", err)
	}

	sock.On(types.EventName("connect"), func(...any) {
		c.log.Info().Str("sid", string(sock.Id())).Msg("event stream connected")
		c.mu.RLock()
		fn := c.onConnect
		c.mu.RUnlock()
		if fn != nil {
			fn()
		}
	})
	sock.On(types.EventName("disconnect"), func(args ...any) {
		reason := ""
		if len(args) > 0 {
			reason, _ = args[0].(string)
		}
		c.log.Warn().Str("reason", reason).Msg("event stream disconnected")
	})
	sock.On(types.EventName("connect_error"), func(args ...any) {
		if len(args) > 0 {
			c.log.Error().Interface("error", args[0]).Msg("event stream connection error")
		}
	})
	sock.On(types.EventName("message"), c.handleMessage)

	c.mu.Lock()
	c.socket = sock
	c.mu.Unlock()
	return nil
}

// Join subscribes the connection to one job address. The server starts
// pushing status messages for the address immediately.
func (c *Client) Join(_ context.Context, addr run.JobAddress) error {
	c.mu.RLock()
	sock := c.socket
	c.mu.RUnlock()

	if sock == nil {
		return platformerrors.NewError(platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeTransport, "event stream is not connected", nil)
	}

	sock.Emit("join", addr.Namespace, addr.User, addr.JobID)
	c.log.Debug().Str("target", addr.String()).Msg("joined job room")
	return nil
}

// Events returns the arrival-ordered stream of decoded status events.
func (c *Client) Events() <-chan run.StatusEvent {
	return c.events
}

// Close disconnects the socket and ends the event stream.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		if c.socket != nil {
			c.socket.Disconnect()
			c.socket = nil
		}
		c.mu.Unlock()
	})
	return nil
}

// handleMessage decodes one pushed status message. The wire shape is
// positional: (target, status, progress, eta) with target "ns/user/jobId".
// Malformed frames are logged and dropped; the reconciler covers the gap.
func (c *Client) handleMessage(args ...any) {
	if len(args) < 2 {
		c.log.Warn().Int("args", len(args)).Msg("dropped malformed status message")
		return
	}

	target, ok := args[0].(string)
	if !ok {
		c.log.Warn().Msg("dropped status message with non-string target")
		return
	}
	addr, err := run.ParseTarget(target)
	if err != nil {
		c.log.Warn().Err(err).Str("target", target).Msg("dropped status message with invalid target")
		return
	}

	status, ok := args[1].(string)
	if !ok {
		c.log.Warn().Str("target", target).Msg("dropped status message with non-string status")
		return
	}

	ev := run.StatusEvent{Address: addr, Status: run.Status(status)}
	if len(args) > 2 {
		ev.Progress = toFloat(args[2])
	}
	if len(args) > 3 {
		ev.ETA = int64(toFloat(args[3]))
	}

	// Blocking send keeps per-address ordering; done unblocks shutdown while
	// the consumer is gone.
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
