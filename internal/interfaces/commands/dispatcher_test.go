package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/agent"
	"github.com/phizone/player-agent/internal/domain/renderconfig"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/infrastructure/store"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

type stubJobs struct {
	listRuns  []run.Details
	listTotal int
	listErr   error
	receipt   run.Receipt
	cancelled []string
}

func (s *stubJobs) List(context.Context, string, int, int) ([]run.Details, int, error) {
	return s.listRuns, s.listTotal, s.listErr
}

func (s *stubJobs) Get(context.Context, string, string) (run.Details, error) {
	return run.Details{}, nil
}

func (s *stubJobs) Create(context.Context, run.Submission) (run.Receipt, error) {
	return s.receipt, nil
}

func (s *stubJobs) Progress(context.Context, string, string) (run.ProgressInfo, error) {
	return run.ProgressInfo{Status: run.StatusRendering, Progress: 0.5}, nil
}

func (s *stubJobs) Cancel(_ context.Context, jobID, _ string) error {
	s.cancelled = append(s.cancelled, jobID)
	return nil
}

type stubStream struct {
	events chan run.StatusEvent
}

func (s *stubStream) Join(context.Context, run.JobAddress) error { return nil }
func (s *stubStream) Events() <-chan run.StatusEvent             { return s.events }

type stubChat struct {
	sent []string
}

func (s *stubChat) ResolveFileURL(_ context.Context, ref run.FileRef) (string, error) {
	return "https://files.example/" + ref.Name, nil
}

func (s *stubChat) Send(_ context.Context, _ transport.ConversationRef, text string) error {
	s.sent = append(s.sent, text)
	return nil
}

func (s *stubChat) UploadFile(context.Context, transport.ConversationRef, string, string) error {
	return nil
}

type stubConfigRepo struct {
	docs map[string]renderconfig.Document
}

func (r *stubConfigRepo) Load(_ context.Context, user string) (renderconfig.Document, error) {
	doc, ok := r.docs[user]
	if !ok {
		return renderconfig.Document{}, renderconfig.ErrConfigNotFound
	}
	return doc, nil
}

func (r *stubConfigRepo) Save(_ context.Context, user string, doc renderconfig.Document) error {
	r.docs[user] = doc
	return nil
}

func newDispatcher(jobs *stubJobs) (*Dispatcher, *stubChat) {
	log := zerolog.Nop()
	chat := &stubChat{}
	svc := agent.NewService(
		run.NewRegistry(log),
		store.NewMemoryStore(log),
		renderconfig.NewService(&stubConfigRepo{docs: map[string]renderconfig.Document{}}, log),
		jobs,
		&stubStream{events: make(chan run.StatusEvent)},
		chat,
		log,
	)
	return NewDispatcher(svc, chat, log), chat
}

var conv = transport.ConversationRef{ChatID: "chat-1"}

func lastSent(t *testing.T, chat *stubChat) string {
	t.Helper()
	if len(chat.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return chat.sent[len(chat.sent)-1]
}

func TestHandleUnknownCommandShowsHelp(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{})

	if err := d.Handle(context.Background(), "u1", conv, "frobnicate"); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if got := lastSent(t, chat); !strings.Contains(got, "Commands:") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleInternalFailureSendsGenericNotice(t *testing.T) {
	jobs := &stubJobs{
		listErr: platformerrors.NewRemoteServiceError(platformerrors.LayerInfrastructure, 502, "upstream unavailable"),
	}
	d, chat := newDispatcher(jobs)

	err := d.Handle(context.Background(), "u1", conv, "runs")
	if err == nil {
		t.Fatal("expected the remote failure to surface to the adapter")
	}
	if got := lastSent(t, chat); !strings.Contains(got, "try again") {
		t.Fatalf("reply = %q, want a generic failure notice", got)
	}
	if strings.Contains(lastSent(t, chat), "upstream unavailable") {
		t.Fatal("internal error detail leaked into the conversation")
	}
}

func TestHandleStartThenFileThenSubmit(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{
		receipt: run.Receipt{Address: run.JobAddress{Namespace: "qq", User: "u1", JobID: "j1"}},
	})
	ctx := context.Background()

	if err := d.Handle(ctx, "u1", conv, "start"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := d.HandleFile(ctx, "u1", conv, run.FileRef{Name: "chart.zip", FileID: "f1"}); err != nil {
		t.Fatalf("file failed: %v", err)
	}
	if err := d.Handle(ctx, "u1", conv, "submit"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if got := lastSent(t, chat); !strings.Contains(got, "submitted") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleStartConflictRedirectsToProgress(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{
		listRuns:  []run.Details{{ID: "j1", Status: run.StatusInProgress}},
		listTotal: 1,
	})

	if err := d.Handle(context.Background(), "u1", conv, "start"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	// The conflict notice first, then the progress report.
	if len(chat.sent) != 2 {
		t.Fatalf("sent = %v", chat.sent)
	}
	if !strings.Contains(chat.sent[1], "Rendering") {
		t.Fatalf("progress reply = %q", chat.sent[1])
	}
}

func TestHandleSubmitWithoutDraftReplies(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{})

	if err := d.Handle(context.Background(), "u1", conv, "submit"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if got := lastSent(t, chat); !strings.Contains(got, "no pending request") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleFileOutsideSessionIsIgnored(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{})

	if err := d.HandleFile(context.Background(), "u1", conv, run.FileRef{Name: "noise.png"}); err != nil {
		t.Fatalf("HandleFile failed: %v", err)
	}
	if len(chat.sent) != 0 {
		t.Fatalf("unexpected replies: %v", chat.sent)
	}
}

func TestHandleRunsParsesPaging(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{
		listRuns:  []run.Details{{ID: "j1", Status: run.StatusCompleted}},
		listTotal: 9,
	})

	if err := d.Handle(context.Background(), "u1", conv, "runs 2 3"); err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if got := lastSent(t, chat); !strings.Contains(got, "page 2 of 3") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleConfigSetAndUnknownProperty(t *testing.T) {
	d, chat := newDispatcher(&stubJobs{})
	ctx := context.Background()

	if err := d.Handle(ctx, "u1", conv, "config preferences.noteSize 1.2"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	if got := lastSent(t, chat); !strings.Contains(got, "noteSize") {
		t.Fatalf("reply = %q", got)
	}

	if err := d.Handle(ctx, "u1", conv, "config preferences.bogus 1"); err != nil {
		t.Fatalf("unknown property should be answered, not returned: %v", err)
	}
}

func TestHandleCancel(t *testing.T) {
	jobs := &stubJobs{
		listRuns:  []run.Details{{ID: "j1", Status: run.StatusInProgress}},
		listTotal: 1,
	}
	d, _ := newDispatcher(jobs)

	if err := d.Handle(context.Background(), "u1", conv, "cancel"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(jobs.cancelled) != 1 || jobs.cancelled[0] != "j1" {
		t.Fatalf("cancelled = %v", jobs.cancelled)
	}
}
