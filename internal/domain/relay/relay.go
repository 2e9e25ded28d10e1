// Package relay downloads finished-run artifacts and re-uploads them into the
// originating conversation.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
)

// Relay copies run output files into chat conversations. Files are handled
// independently: one file's failure is logged and skipped so users still
// receive whatever did succeed. Each file's own download, upload and cleanup
// sequence is strictly ordered; files may proceed concurrently up to a bound.
type Relay struct {
	transport   transport.Transport
	httpClient  *http.Client
	tempDir     string
	maxInFlight int
	log         zerolog.Logger
}

// New creates a relay. httpClient must carry a timeout; maxInFlight bounds
// concurrent file transfers.
func New(tr transport.Transport, httpClient *http.Client, tempDir string, maxInFlight int, log zerolog.Logger) *Relay {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Relay{
		transport:   tr,
		httpClient:  httpClient,
		tempDir:     tempDir,
		maxInFlight: maxInFlight,
		log:         log.With().Str("component", "artifact-relay").Logger(),
	}
}

// Deliver relays every output file of a finished run into conv. It returns
// the number of files delivered; per-file failures are logged, not fatal.
func (r *Relay) Deliver(ctx context.Context, conv transport.ConversationRef, jobID string, files []run.OutputFile) int {
	if len(files) == 0 {
		return 0
	}

	delivered := make(chan struct{}, len(files))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.maxInFlight)

	for _, file := range files {
		group.Go(func() error {
			if err := r.relayFile(ctx, conv, jobID, file); err != nil {
				r.log.Error().Err(err).
					Str("job_id", jobID).
					Str("file", file.Name).
					Msg("failed to relay output file")
				return nil
			}
			delivered <- struct{}{}
			return nil
		})
	}

	// Errors never propagate from the group; only cancellation ends it early.
	_ = group.Wait()
	close(delivered)

	count := 0
	for range delivered {
		count++
	}
	r.log.Info().Str("job_id", jobID).Int("delivered", count).Int("total", len(files)).Msg("relayed artifacts")
	return count
}

// relayFile runs one file's download, upload and cleanup sequence. The
// temporary file is removed regardless of upload outcome.
func (r *Relay) relayFile(ctx context.Context, conv transport.ConversationRef, jobID string, file run.OutputFile) error {
	localPath := filepath.Join(r.tempDir, uuid.New().String())
	if err := r.download(ctx, file.URL, localPath); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(localPath); err != nil {
			r.log.Warn().Err(err).Str("path", localPath).Msg("failed to remove temp artifact")
		}
	}()

	return r.transport.UploadFile(ctx, conv, localPath, file.DisplayName(jobID))
}

func (r *Relay) download(ctx context.Context, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return err
	}
	return out.Close()
}
