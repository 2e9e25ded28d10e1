package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/phizone/player-agent/internal/domain/relay"
	"github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/infrastructure/store"
)

type routerFixture struct {
	router *Router
	stream *fakeStream
	rooms  *store.MemoryStore
	jobs   *fakeJobs
	chat   *fakeChat
}

func newRouterFixture(t *testing.T, jobs *fakeJobs) *routerFixture {
	t.Helper()
	log := zerolog.Nop()
	chat := &fakeChat{}
	stream := newFakeStream()
	rooms := store.NewMemoryStore(log)
	artifactRelay := relay.New(chat, http.DefaultClient, t.TempDir(), 2, log)
	router := NewRouter(stream, rooms, jobs, artifactRelay, chat, 5*time.Second, log)
	return &routerFixture{router: router, stream: stream, rooms: rooms, jobs: jobs, chat: chat}
}

func queuedRecord(user, jobID string) room.Record {
	return room.Record{
		User:         user,
		Address:      run.JobAddress{Namespace: "qq", User: user, JobID: jobID},
		Conversation: testConv,
		Payload:      room.Payload{Status: run.StatusQueued},
	}
}

func event(record room.Record, status run.Status) run.StatusEvent {
	return run.StatusEvent{Address: record.Address, Status: status}
}

func TestRouterEndToEnd(t *testing.T) {
	jobs := &fakeJobs{details: map[string]run.Details{
		"j1": {ID: "j1", Status: run.StatusCompleted},
	}}
	f := newRouterFixture(t, jobs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	record := queuedRecord("u1", "j1")
	if err := f.rooms.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	f.router.Start(ctx)
	defer f.router.Stop()

	f.stream.events <- event(record, run.StatusCompleted)

	deadline := time.After(2 * time.Second)
	for f.chat.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("no terminal notice within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := f.chat.sentCount(); got != 1 {
		t.Fatalf("sent %d notices, want 1", got)
	}
	if !strings.Contains(f.chat.lastSent(), "finished: Completed") {
		t.Fatalf("unexpected notice: %q", f.chat.lastSent())
	}
	if _, err := f.rooms.Get(ctx, "u1"); err == nil {
		t.Fatal("room record should be retired after a terminal event")
	}

	// A duplicate terminal event for the retired address is a no-op.
	f.stream.events <- event(record, run.StatusCompleted)
	time.Sleep(50 * time.Millisecond)
	if got := f.chat.sentCount(); got != 1 {
		t.Fatalf("duplicate event produced a notice, sent = %d", got)
	}
}

func TestRouterInitializingNoticeIsOneTime(t *testing.T) {
	f := newRouterFixture(t, &fakeJobs{})
	ctx := context.Background()

	record := queuedRecord("u1", "j1")
	if err := f.rooms.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	f.router.HandleEvent(ctx, event(record, run.StatusInitializing))
	f.router.HandleEvent(ctx, event(record, run.StatusInitializing))

	if got := f.chat.sentCount(); got != 1 {
		t.Fatalf("sent %d notices, want 1", got)
	}
	if !strings.Contains(f.chat.lastSent(), "now being processed") {
		t.Fatalf("unexpected notice: %q", f.chat.lastSent())
	}

	got, err := f.rooms.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Payload.Status != run.StatusInitializing {
		t.Fatalf("payload status = %s", got.Payload.Status)
	}
}

func TestRouterDropsMismatchedAddress(t *testing.T) {
	f := newRouterFixture(t, &fakeJobs{})
	ctx := context.Background()

	record := queuedRecord("u1", "j1")
	if err := f.rooms.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stale := record
	stale.Address.JobID = "j0"
	f.router.HandleEvent(ctx, event(stale, run.StatusCompleted))

	if got := f.chat.sentCount(); got != 0 {
		t.Fatalf("mismatched event produced %d notices", got)
	}
	got, err := f.rooms.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("record should survive a mismatched event: %v", err)
	}
	if got.Payload.Status != run.StatusQueued {
		t.Fatalf("payload status = %s, want queued", got.Payload.Status)
	}
}

func TestRouterIntermediateStatusIsPassive(t *testing.T) {
	f := newRouterFixture(t, &fakeJobs{})
	ctx := context.Background()

	record := queuedRecord("u1", "j1")
	if err := f.rooms.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ev := event(record, run.StatusRendering)
	ev.Progress = 0.4
	ev.ETA = 120
	f.router.HandleEvent(ctx, ev)

	if got := f.chat.sentCount(); got != 0 {
		t.Fatalf("intermediate event produced %d notices", got)
	}
	got, err := f.rooms.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Payload.Status != run.StatusRendering || got.Payload.Progress != 0.4 || got.Payload.ETA != 120 {
		t.Fatalf("payload = %+v", got.Payload)
	}
}

func TestRouterFailedRunRetiresWithoutRelay(t *testing.T) {
	f := newRouterFixture(t, &fakeJobs{})
	ctx := context.Background()

	record := queuedRecord("u1", "j1")
	if err := f.rooms.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	f.router.HandleEvent(ctx, event(record, run.StatusFailed))

	if !strings.Contains(f.chat.lastSent(), "finished: Failed") {
		t.Fatalf("unexpected notice: %q", f.chat.lastSent())
	}
	if len(f.chat.uploads) != 0 {
		t.Fatalf("failed run must not relay artifacts: %v", f.chat.uploads)
	}
	if _, err := f.rooms.Get(ctx, "u1"); err == nil {
		t.Fatal("room record should be retired")
	}
}

func TestRouterCompletedRunRelaysArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	jobs := &fakeJobs{details: map[string]run.Details{
		"j1": {ID: "j1", Status: run.StatusCompleted, OutputFiles: []run.OutputFile{
			{Name: "j1 - render.mp4", URL: srv.URL + "/render.mp4"},
		}},
	}}
	f := newRouterFixture(t, jobs)
	ctx := context.Background()

	record := queuedRecord("u1", "j1")
	if err := f.rooms.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	f.router.HandleEvent(ctx, event(record, run.StatusCompleted))

	notice := f.chat.lastSent()
	if !strings.Contains(notice, "Results:") || !strings.Contains(notice, "render.mp4") {
		t.Fatalf("unexpected notice: %q", notice)
	}
	if len(f.chat.uploads) != 1 || f.chat.uploads[0] != "render.mp4" {
		t.Fatalf("uploads = %v", f.chat.uploads)
	}
	if _, err := f.rooms.Get(ctx, "u1"); err == nil {
		t.Fatal("room record should be retired")
	}
}
