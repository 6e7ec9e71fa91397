package manifest

import (
	"regexp"
	"strconv"
	"strings"
)

// Tunables for the index range guess used when a stream carries no offsets.
// They approximate the moov+sidx size and are not a protocol guarantee.
const (
	IndexSecondsPerEntry = 2
	IndexBytesPerEntry   = 12
	IndexBaseBytes       = 20000
)

// IndexSizeHeuristic estimates the init+index size in bytes for a title of
// the given length.
func IndexSizeHeuristic(seconds int64) int64 {
	return seconds/IndexSecondsPerEntry*IndexBytesPerEntry + IndexBaseBytes
}

var vp9Profile = regexp.MustCompile(`vp9-profile(.+?)-L(.+?)-dash`)

func videoCodec(profile string) string {
	switch {
	case strings.Contains(profile, "hevc"):
		return "hevc"
	case strings.Contains(profile, "vp9"):
		if m := vp9Profile.FindStringSubmatch(profile); m != nil {
			return "vp9." + m[1] + "." + m[2]
		}
		return "vp9"
	default:
		return "h264"
	}
}

func audioCodec(profile string) string {
	if strings.HasPrefix(profile, "ddplus-") {
		return "ec-3"
	}
	return "aac"
}

// channelCount maps a layout such as "5.1" to its speaker count (6): full
// range channels plus LFE.
func channelCount(layout string) (int, bool) {
	full, lfe, ok := strings.Cut(layout, ".")
	if !ok {
		lfe = "0"
	}
	f, err := strconv.Atoi(full)
	if err != nil || f <= 0 {
		return 0, false
	}
	l, err := strconv.Atoi(lfe)
	if err != nil || l < 0 {
		return 0, false
	}
	return f + l, true
}

func textCodec(profile string) (codec, mimeType string) {
	if profile == "webvtt-lssdh-ios8" {
		return "wvtt", "text/vtt"
	}
	return "stpp", "application/ttml+xml"
}
