package renderconfig

import (
	"fmt"
	"strings"
)

// Summary renders the document as the multi-line recap shown before
// submission and by the config command.
func Summary(doc Document) string {
	var b strings.Builder

	b.WriteString("Media options:")
	writeLine(&b, "Resolution", DisplayValue(KindResolution, doc.MediaOptions.OverrideResolution))
	writeLine(&b, "Frame rate", fmt.Sprintf("%s fps", DisplayValue(KindFloat, doc.MediaOptions.FrameRate)))
	writeLine(&b, "Video codec", doc.MediaOptions.VideoCodec)
	writeLine(&b, "Video bitrate", fmt.Sprintf("%s kbps", DisplayValue(KindFloat, doc.MediaOptions.VideoBitrate)))
	writeLine(&b, "Audio bitrate", fmt.Sprintf("%s kbps", DisplayValue(KindFloat, doc.MediaOptions.AudioBitrate)))
	writeLine(&b, "Results loops to render", DisplayValue(KindFloat, doc.MediaOptions.ResultsLoopsToRender))

	b.WriteString("\n\nPlay preferences:")
	writeLine(&b, "Background blur", DisplayValue(KindFloat, doc.Preferences.BackgroundBlur))
	writeLine(&b, "Background luminance", DisplayValue(KindFloat, doc.Preferences.BackgroundLuminance))
	writeLine(&b, "Chart flipping", DisplayValue(KindFlipMode, doc.Preferences.ChartFlipping))
	writeLine(&b, "Chart offset", DisplayValue(KindFloat, doc.Preferences.ChartOffset))
	writeLine(&b, "FC/AP indicator", DisplayValue(KindBool, doc.Preferences.FcApIndicator))
	writeLine(&b, "Hit sound volume", DisplayValue(KindFloat, doc.Preferences.HitSoundVolume))
	writeLine(&b, "Line thickness", DisplayValue(KindFloat, doc.Preferences.LineThickness))
	writeLine(&b, "Music volume", DisplayValue(KindFloat, doc.Preferences.MusicVolume))
	writeLine(&b, "Note size", DisplayValue(KindFloat, doc.Preferences.NoteSize))
	writeLine(&b, "Simultaneous note hint", DisplayValue(KindBool, doc.Preferences.SimultaneousNoteHint))

	b.WriteString("\n\nToggles:")
	writeLine(&b, "Autoplay", DisplayValue(KindBool, doc.Toggles.Autoplay))

	return b.String()
}

func writeLine(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "\n- %s: %s", name, value)
}
