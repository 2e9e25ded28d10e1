// Package renderconfig holds the per-user render configuration document and
// its fixed path schema. Documents are value types; mutation helpers validate
// first and produce a new document, leaving the input untouched on failure.
package renderconfig

// MediaOptions controls the produced video.
type MediaOptions struct {
	FrameRate            float64 `json:"frameRate"`
	OverrideResolution   [2]int  `json:"overrideResolution"`
	ResultsLoopsToRender float64 `json:"resultsLoopsToRender"`
	VideoCodec           string  `json:"videoCodec"`
	VideoBitrate         float64 `json:"videoBitrate"`
	AudioBitrate         float64 `json:"audioBitrate"`
}

// ChartFlipping mirror modes.
const (
	FlipOff        = 0
	FlipHorizontal = 1
	FlipVertical   = 2
	FlipBoth       = 3
)

// Preferences controls in-game playback rendering.
type Preferences struct {
	BackgroundBlur       float64 `json:"backgroundBlur"`
	BackgroundLuminance  float64 `json:"backgroundLuminance"`
	ChartFlipping        int     `json:"chartFlipping"`
	ChartOffset          float64 `json:"chartOffset"`
	FcApIndicator        bool    `json:"fcApIndicator"`
	HitSoundVolume       float64 `json:"hitSoundVolume"`
	LineThickness        float64 `json:"lineThickness"`
	MusicVolume          float64 `json:"musicVolume"`
	NoteSize             float64 `json:"noteSize"`
	SimultaneousNoteHint bool    `json:"simultaneousNoteHint"`
}

// Toggles holds boolean feature switches.
type Toggles struct {
	Autoplay bool `json:"autoplay"`
}

// Document is one user's full render configuration.
type Document struct {
	MediaOptions MediaOptions `json:"mediaOptions"`
	Preferences  Preferences  `json:"preferences"`
	Toggles      Toggles      `json:"toggles"`
}

// Defaults returns the configuration every user starts from.
func Defaults() Document {
	return Document{
		MediaOptions: MediaOptions{
			FrameRate:            60,
			OverrideResolution:   [2]int{1620, 1080},
			ResultsLoopsToRender: 1,
			VideoCodec:           "libx264",
			VideoBitrate:         6000,
			AudioBitrate:         320,
		},
		Preferences: Preferences{
			BackgroundBlur:       1,
			BackgroundLuminance:  0.5,
			ChartFlipping:        FlipOff,
			ChartOffset:          0,
			FcApIndicator:        true,
			HitSoundVolume:       0.75,
			LineThickness:        1,
			MusicVolume:          1,
			NoteSize:             1,
			SimultaneousNoteHint: true,
		},
		Toggles: Toggles{
			Autoplay: true,
		},
	}
}
