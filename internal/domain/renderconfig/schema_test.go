package renderconfig

import (
	"testing"

	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

func TestLookupUnknownPath(t *testing.T) {
	_, err := Lookup("preferences.doesNotExist")
	if err == nil {
		t.Fatal("expected an error for an unknown path")
	}
	if !platformerrors.IsType(err, platformerrors.ErrorTypeUnknownProperty) {
		t.Fatalf("expected UNKNOWN_PROPERTY, got %v", err)
	}
}

func TestSetChartFlipping(t *testing.T) {
	doc := Defaults()

	next, value, err := Set(doc, "preferences.chartFlipping", "vertical")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if value != FlipVertical {
		t.Fatalf("expected numeric code %d, got %v", FlipVertical, value)
	}
	if next.Preferences.ChartFlipping != FlipVertical {
		t.Fatalf("document not updated: %d", next.Preferences.ChartFlipping)
	}

	// An out-of-table token fails and leaves the document unchanged.
	same, _, err := Set(doc, "preferences.chartFlipping", "diagonal")
	if !platformerrors.IsValidation(err) {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
	if same.Preferences.ChartFlipping != doc.Preferences.ChartFlipping {
		t.Fatal("document mutated on validation failure")
	}
}

func TestSetResolution(t *testing.T) {
	doc := Defaults()

	next, value, err := Set(doc, "mediaOptions.overrideResolution", "1620x1080")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	pair := value.([2]int)
	if pair != [2]int{1620, 1080} {
		t.Fatalf("expected [1620 1080], got %v", pair)
	}
	if next.MediaOptions.OverrideResolution != pair {
		t.Fatal("document not updated")
	}

	for _, raw := range []string{"1620", "x1080", "1620x", "widexhigh", "1620X1080"} {
		if _, _, err := Set(doc, "mediaOptions.overrideResolution", raw); !platformerrors.IsValidation(err) {
			t.Errorf("Set(%q) should fail validation, got %v", raw, err)
		}
	}
}

func TestSetFloatAndBool(t *testing.T) {
	doc := Defaults()

	next, _, err := Set(doc, "mediaOptions.videoBitrate", "12000")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if next.MediaOptions.VideoBitrate != 12000 {
		t.Fatalf("videoBitrate = %v, want 12000", next.MediaOptions.VideoBitrate)
	}

	if _, _, err := Set(doc, "mediaOptions.videoBitrate", "fast"); !platformerrors.IsValidation(err) {
		t.Fatalf("expected VALIDATION for non-numeric value, got %v", err)
	}

	next, value, err := Set(doc, "toggles.autoplay", "off")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if value != false || next.Toggles.Autoplay {
		t.Fatal("autoplay should be off")
	}

	if _, _, err := Set(doc, "toggles.autoplay", "maybe"); !platformerrors.IsValidation(err) {
		t.Fatalf("expected VALIDATION for bad boolean, got %v", err)
	}
}

func TestToggleIdempotence(t *testing.T) {
	doc := Defaults()
	original := doc.Preferences.FcApIndicator

	once, value, err := Toggle(doc, "preferences.fcApIndicator")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if value == original {
		t.Fatal("toggle should flip the value")
	}

	twice, value, err := Toggle(once, "preferences.fcApIndicator")
	if err != nil {
		t.Fatalf("second Toggle failed: %v", err)
	}
	if value != original || twice.Preferences.FcApIndicator != original {
		t.Fatal("toggling twice should restore the original value")
	}

	if _, _, err := Toggle(doc, "mediaOptions.frameRate"); !platformerrors.IsValidation(err) {
		t.Fatalf("toggling a float leaf should fail validation, got %v", err)
	}
}

func TestDisplayValue(t *testing.T) {
	if got := DisplayValue(KindResolution, [2]int{1620, 1080}); got != "1620x1080" {
		t.Errorf("resolution display = %q", got)
	}
	if got := DisplayValue(KindFlipMode, FlipBoth); got != "both" {
		t.Errorf("flip display = %q", got)
	}
	if got := DisplayValue(KindBool, true); got != "on" {
		t.Errorf("bool display = %q", got)
	}
	if got := DisplayValue(KindFloat, 0.5); got != "0.5" {
		t.Errorf("float display = %q", got)
	}
}

func TestPathsCoverSchema(t *testing.T) {
	paths := Paths()
	if len(paths) != 17 {
		t.Fatalf("expected 17 paths, got %d", len(paths))
	}
	for _, path := range paths {
		if _, err := Lookup(path); err != nil {
			t.Errorf("Lookup(%q) failed: %v", path, err)
		}
	}
}
