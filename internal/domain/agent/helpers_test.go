package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
)

// fakeJobs is a scripted JobClient.
type fakeJobs struct {
	mu sync.Mutex

	listRuns  []run.Details
	listTotal int
	listErr   error

	createReceipt run.Receipt
	createErr     error
	created       []run.Submission

	details    map[string]run.Details
	detailsErr error

	progress    run.ProgressInfo
	progressErr error

	cancelErr error
	cancelled []string
}

func (f *fakeJobs) List(context.Context, string, int, int) ([]run.Details, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listRuns, f.listTotal, f.listErr
}

func (f *fakeJobs) Get(_ context.Context, jobID, _ string) (run.Details, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailsErr != nil {
		return run.Details{}, f.detailsErr
	}
	details, ok := f.details[jobID]
	if !ok {
		return run.Details{}, errors.New("run not found")
	}
	return details, nil
}

func (f *fakeJobs) Create(_ context.Context, sub run.Submission) (run.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return run.Receipt{}, f.createErr
	}
	f.created = append(f.created, sub)
	return f.createReceipt, nil
}

func (f *fakeJobs) Progress(context.Context, string, string) (run.ProgressInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress, f.progressErr
}

func (f *fakeJobs) Cancel(_ context.Context, jobID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

// fakeStream records joins and lets tests push events.
type fakeStream struct {
	mu      sync.Mutex
	joins   []run.JobAddress
	joinErr error
	events  chan run.StatusEvent
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan run.StatusEvent, 16)}
}

func (f *fakeStream) Join(_ context.Context, addr run.JobAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joins = append(f.joins, addr)
	return nil
}

func (f *fakeStream) Events() <-chan run.StatusEvent {
	return f.events
}

// fakeChat is a scripted Transport.
type fakeChat struct {
	mu         sync.Mutex
	sent       []string
	uploads    []string
	resolveErr error
	urls       map[string]string
}

func (f *fakeChat) ResolveFileURL(_ context.Context, ref run.FileRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if url, ok := f.urls[ref.Name]; ok {
		return url, nil
	}
	return "https://files.example/" + ref.Name, nil
}

func (f *fakeChat) Send(_ context.Context, _ transport.ConversationRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeChat) UploadFile(_ context.Context, _ transport.ConversationRef, _, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, displayName)
	return nil
}

func (f *fakeChat) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeChat) lastSent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}
