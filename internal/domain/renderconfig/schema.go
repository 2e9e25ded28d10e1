package renderconfig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// Kind is the declared leaf type of a configuration path.
type Kind int

const (
	// KindBool is a toggleable boolean (symbols: on/off/true/false/1/0).
	KindBool Kind = iota
	// KindFloat is a plain number.
	KindFloat
	// KindString is free-form text.
	KindString
	// KindResolution is a "WIDTHxHEIGHT" pair.
	KindResolution
	// KindFlipMode is the chart flipping enumeration.
	KindFlipMode
)

// Property is one entry of the static path table: a fixed path enumerant with
// its declared kind and typed accessor/mutator pair.
type Property struct {
	Path string
	Kind Kind

	get func(Document) any
	set func(*Document, any)
}

var resolutionPattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

var flipModeSymbols = map[string]int{
	"off":        FlipOff,
	"horizontal": FlipHorizontal,
	"vertical":   FlipVertical,
	"both":       FlipBoth,
}

var boolSymbols = map[string]bool{
	"on":    true,
	"off":   false,
	"true":  true,
	"false": false,
	"1":     true,
	"0":     false,
}

// schema is the allow-list of every addressable leaf. Unknown paths never
// reach a document.
var schema = []Property{
	{
		Path: "mediaOptions.overrideResolution", Kind: KindResolution,
		get: func(d Document) any { return d.MediaOptions.OverrideResolution },
		set: func(d *Document, v any) { d.MediaOptions.OverrideResolution = v.([2]int) },
	},
	{
		Path: "mediaOptions.frameRate", Kind: KindFloat,
		get: func(d Document) any { return d.MediaOptions.FrameRate },
		set: func(d *Document, v any) { d.MediaOptions.FrameRate = v.(float64) },
	},
	{
		Path: "mediaOptions.videoCodec", Kind: KindString,
		get: func(d Document) any { return d.MediaOptions.VideoCodec },
		set: func(d *Document, v any) { d.MediaOptions.VideoCodec = v.(string) },
	},
	{
		Path: "mediaOptions.videoBitrate", Kind: KindFloat,
		get: func(d Document) any { return d.MediaOptions.VideoBitrate },
		set: func(d *Document, v any) { d.MediaOptions.VideoBitrate = v.(float64) },
	},
	{
		Path: "mediaOptions.audioBitrate", Kind: KindFloat,
		get: func(d Document) any { return d.MediaOptions.AudioBitrate },
		set: func(d *Document, v any) { d.MediaOptions.AudioBitrate = v.(float64) },
	},
	{
		Path: "mediaOptions.resultsLoopsToRender", Kind: KindFloat,
		get: func(d Document) any { return d.MediaOptions.ResultsLoopsToRender },
		set: func(d *Document, v any) { d.MediaOptions.ResultsLoopsToRender = v.(float64) },
	},
	{
		Path: "preferences.backgroundBlur", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.BackgroundBlur },
		set: func(d *Document, v any) { d.Preferences.BackgroundBlur = v.(float64) },
	},
	{
		Path: "preferences.backgroundLuminance", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.BackgroundLuminance },
		set: func(d *Document, v any) { d.Preferences.BackgroundLuminance = v.(float64) },
	},
	{
		Path: "preferences.chartFlipping", Kind: KindFlipMode,
		get: func(d Document) any { return d.Preferences.ChartFlipping },
		set: func(d *Document, v any) { d.Preferences.ChartFlipping = v.(int) },
	},
	{
		Path: "preferences.chartOffset", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.ChartOffset },
		set: func(d *Document, v any) { d.Preferences.ChartOffset = v.(float64) },
	},
	{
		Path: "preferences.fcApIndicator", Kind: KindBool,
		get: func(d Document) any { return d.Preferences.FcApIndicator },
		set: func(d *Document, v any) { d.Preferences.FcApIndicator = v.(bool) },
	},
	{
		Path: "preferences.hitSoundVolume", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.HitSoundVolume },
		set: func(d *Document, v any) { d.Preferences.HitSoundVolume = v.(float64) },
	},
	{
		Path: "preferences.lineThickness", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.LineThickness },
		set: func(d *Document, v any) { d.Preferences.LineThickness = v.(float64) },
	},
	{
		Path: "preferences.musicVolume", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.MusicVolume },
		set: func(d *Document, v any) { d.Preferences.MusicVolume = v.(float64) },
	},
	{
		Path: "preferences.noteSize", Kind: KindFloat,
		get: func(d Document) any { return d.Preferences.NoteSize },
		set: func(d *Document, v any) { d.Preferences.NoteSize = v.(float64) },
	},
	{
		Path: "preferences.simultaneousNoteHint", Kind: KindBool,
		get: func(d Document) any { return d.Preferences.SimultaneousNoteHint },
		set: func(d *Document, v any) { d.Preferences.SimultaneousNoteHint = v.(bool) },
	},
	{
		Path: "toggles.autoplay", Kind: KindBool,
		get: func(d Document) any { return d.Toggles.Autoplay },
		set: func(d *Document, v any) { d.Toggles.Autoplay = v.(bool) },
	},
}

var schemaByPath = func() map[string]Property {
	m := make(map[string]Property, len(schema))
	for _, p := range schema {
		m[p.Path] = p
	}
	return m
}()

// Paths returns every addressable path in table order.
func Paths() []string {
	out := make([]string, len(schema))
	for i, p := range schema {
		out[i] = p.Path
	}
	return out
}

// Lookup resolves a path against the allow-list.
func Lookup(path string) (Property, error) {
	prop, ok := schemaByPath[path]
	if !ok {
		return Property{}, platformerrors.NewErrorWithContext(
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeUnknownProperty,
			fmt.Sprintf("unknown configuration property %q", path),
			nil,
			map[string]any{"path": path},
		)
	}
	return prop, nil
}

// Get returns the current value at path.
func Get(doc Document, path string) (any, error) {
	prop, err := Lookup(path)
	if err != nil {
		return nil, err
	}
	return prop.get(doc), nil
}

// Set validates raw against the leaf's declared kind and returns a new
// document with the value applied. doc is never mutated; any validation
// failure leaves it untouched by construction.
func Set(doc Document, path, raw string) (Document, any, error) {
	prop, err := Lookup(path)
	if err != nil {
		return doc, nil, err
	}
	value, err := parseValue(prop.Kind, raw)
	if err != nil {
		return doc, nil, err
	}
	next := doc
	prop.set(&next, value)
	return next, value, nil
}

// Toggle flips a boolean leaf and returns the new document and value. Fails
// with a validation error on non-boolean leaves.
func Toggle(doc Document, path string) (Document, bool, error) {
	prop, err := Lookup(path)
	if err != nil {
		return doc, false, err
	}
	if prop.Kind != KindBool {
		return doc, false, validationError(fmt.Sprintf("property %q is not a toggle", path))
	}
	next := doc
	value := !prop.get(doc).(bool)
	prop.set(&next, value)
	return next, value, nil
}

func parseValue(kind Kind, raw string) (any, error) {
	switch kind {
	case KindBool:
		value, ok := boolSymbols[strings.ToLower(raw)]
		if !ok {
			return nil, validationError("boolean format error, available options: on, off")
		}
		return value, nil
	case KindFloat:
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, validationError(fmt.Sprintf("number format error: %q", raw))
		}
		return value, nil
	case KindString:
		if raw == "" {
			return nil, validationError("value must not be empty")
		}
		return raw, nil
	case KindResolution:
		match := resolutionPattern.FindStringSubmatch(raw)
		if match == nil {
			return nil, validationError(fmt.Sprintf("resolution format error: %q, use WIDTHxHEIGHT, e.g. 1620x1080", raw))
		}
		width, _ := strconv.Atoi(match[1])
		height, _ := strconv.Atoi(match[2])
		return [2]int{width, height}, nil
	case KindFlipMode:
		value, ok := flipModeSymbols[strings.ToLower(raw)]
		if !ok {
			return nil, validationError("chart flipping option error, available options: off, horizontal, vertical, both")
		}
		return value, nil
	}
	return nil, validationError(fmt.Sprintf("unsupported property kind %d", kind))
}

// DisplayValue renders a leaf value the way notices show it.
func DisplayValue(kind Kind, value any) string {
	switch kind {
	case KindBool:
		if value.(bool) {
			return "on"
		}
		return "off"
	case KindResolution:
		pair := value.([2]int)
		return fmt.Sprintf("%dx%d", pair[0], pair[1])
	case KindFlipMode:
		switch value.(int) {
		case FlipOff:
			return "off"
		case FlipHorizontal:
			return "horizontal"
		case FlipVertical:
			return "vertical"
		case FlipBoth:
			return "both"
		}
		return "unknown"
	case KindFloat:
		return strconv.FormatFloat(value.(float64), 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func validationError(message string) error {
	return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, nil)
}
