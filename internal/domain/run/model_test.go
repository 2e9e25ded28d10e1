package run

import "testing"

func TestParseTarget(t *testing.T) {
	addr, err := ParseTarget("qq/u1/j1")
	if err != nil {
		t.Fatalf("ParseTarget failed: %v", err)
	}
	want := JobAddress{Namespace: "qq", User: "u1", JobID: "j1"}
	if !addr.Equal(want) {
		t.Fatalf("ParseTarget = %+v, want %+v", addr, want)
	}

	for _, target := range []string{"", "qq", "qq/u1", "qq/u1/j1/extra", "/u1/j1", "qq//j1", "qq/u1/"} {
		if _, err := ParseTarget(target); err == nil {
			t.Errorf("ParseTarget(%q) should fail", target)
		}
	}
}

func TestJobAddressEqual(t *testing.T) {
	base := JobAddress{Namespace: "qq", User: "u1", JobID: "j1"}
	if !base.Equal(base) {
		t.Fatal("address should equal itself")
	}
	for _, other := range []JobAddress{
		{Namespace: "tg", User: "u1", JobID: "j1"},
		{Namespace: "qq", User: "u2", JobID: "j1"},
		{Namespace: "qq", User: "u1", JobID: "j2"},
	} {
		if base.Equal(other) {
			t.Errorf("%+v should not equal %+v", base, other)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusQueued, StatusInitializing, StatusRendering, StatusUploadingToOSS, StatusInProgress} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestOutputFileDisplayName(t *testing.T) {
	f := OutputFile{Name: "job42 - render.mp4"}
	if got := f.DisplayName("job42"); got != "render.mp4" {
		t.Errorf("DisplayName = %q, want render.mp4", got)
	}

	// Names shorter than the prefix fall back to the raw name.
	short := OutputFile{Name: "x"}
	if got := short.DisplayName("job42"); got != "x" {
		t.Errorf("DisplayName = %q, want x", got)
	}
}
