package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"msl/internal/domain"
	"msl/internal/logging"
)

var log = logging.Log

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrManifestParse}, args...)...)
}

// Transcode converts a manifest result into a ManifestDocument.
func Transcode(raw []byte) (domain.ManifestDocument, error) {
	var src sourceManifest
	if err := json.Unmarshal(raw, &src); err != nil {
		return domain.ManifestDocument{}, parseErr("%v", err)
	}
	if src.Duration == nil || *src.Duration <= 0 {
		return domain.ManifestDocument{}, parseErr("missing duration")
	}
	if len(src.VideoTracks) == 0 {
		return domain.ManifestDocument{}, parseErr("missing video_tracks")
	}
	if src.AudioTracks == nil {
		return domain.ManifestDocument{}, parseErr("missing audio_tracks")
	}

	seconds := *src.Duration / 1000
	doc := domain.ManifestDocument{
		Duration:          time.Duration(*src.Duration) * time.Millisecond,
		PlaybackContextID: src.PlaybackContextID,
		DRMContextID:      src.DRMContextID,
		LicenseURL:        src.Links.License.Href,
	}
	heuristic := domain.ByteRange{End: IndexSizeHeuristic(seconds)}

	for i, vt := range src.VideoTracks {
		track, err := videoTrack(vt, heuristic)
		if err != nil {
			return domain.ManifestDocument{}, parseErr("video track %d: %v", i, err)
		}
		doc.Video = append(doc.Video, track)
	}

	seen := map[string]bool{}
	for i, at := range src.AudioTracks {
		track, err := audioTrack(at, heuristic)
		if err != nil {
			return domain.ManifestDocument{}, parseErr("audio track %d: %v", i, err)
		}
		track.Default = !seen[at.Language]
		seen[at.Language] = true
		doc.Audio = append(doc.Audio, track)
	}

	for _, tt := range src.TextTracks {
		if tt.IsNoneTrack {
			continue
		}
		if track, ok := textTrack(tt); ok {
			doc.Text = append(doc.Text, track)
		}
	}
	return doc, nil
}

func videoTrack(vt sourceVideoTrack, heuristic domain.ByteRange) (domain.VideoTrack, error) {
	cp, err := protection(vt.DRMHeader)
	if err != nil {
		return domain.VideoTrack{}, err
	}
	if len(vt.Streams) == 0 {
		return domain.VideoTrack{}, errors.New("no streams")
	}
	track := domain.VideoTrack{Protection: cp}
	for j, s := range vt.Streams {
		if s.ContentProfile == "" {
			return domain.VideoTrack{}, fmt.Errorf("stream %d: missing content_profile", j)
		}
		base := firstURL(s.URLs)
		if base == "" {
			return domain.VideoTrack{}, fmt.Errorf("stream %d: no urls", j)
		}
		rep := domain.VideoRepresentation{
			Codec:          videoCodec(s.ContentProfile),
			ContentProfile: s.ContentProfile,
			Bandwidth:      s.Bitrate * 1024,
			Width:          s.Width,
			Height:         s.Height,
			BaseURL:        base,
			IndexRange:     heuristic,
		}
		if s.FramerateValue > 0 {
			scale := s.FramerateScale
			if scale <= 0 {
				scale = 1
			}
			rep.FrameRate = fmt.Sprintf("%d/%d", s.FramerateValue, scale)
		}
		switch {
		case s.StartByteOffset != nil:
			rep.IndexRange = domain.ByteRange{End: *s.StartByteOffset}
		case s.SIDX != nil:
			rep.IndexRange = domain.ByteRange{End: s.SIDX.Offset + s.SIDX.Size}
		}
		track.Representations = append(track.Representations, rep)
	}
	return track, nil
}

func audioTrack(at sourceAudioTrack, heuristic domain.ByteRange) (domain.AudioTrack, error) {
	track := domain.AudioTrack{
		Language: at.Language,
		Impaired: at.TrackType == "ASSISTIVE",
		Original: at.IsNative,
	}
	for j, s := range at.Streams {
		ch, ok := channelCount(s.Channels)
		if !ok {
			return domain.AudioTrack{}, fmt.Errorf("stream %d: bad channels %q", j, s.Channels)
		}
		base := firstURL(s.URLs)
		if base == "" {
			return domain.AudioTrack{}, fmt.Errorf("stream %d: no urls", j)
		}
		track.Representations = append(track.Representations, domain.AudioRepresentation{
			Codec:          audioCodec(s.ContentProfile),
			ContentProfile: s.ContentProfile,
			Bandwidth:      s.Bitrate * 1024,
			Channels:       ch,
			BaseURL:        base,
			IndexRange:     heuristic,
		})
	}
	return track, nil
}

func textTrack(tt sourceTextTrack) (domain.TextTrack, bool) {
	profiles := make([]string, 0, len(tt.Downloadables))
	for p := range tt.Downloadables {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)

	track := domain.TextTrack{Language: tt.Language, Forced: tt.IsForcedNarrative}
	for _, p := range profiles {
		base := firstURL(tt.Downloadables[p].URLs)
		if base == "" {
			log.WithField("profile", p).Debug("manifest: subtitle profile without urls skipped")
			continue
		}
		codec, mime := textCodec(p)
		track.Representations = append(track.Representations, domain.TextRepresentation{
			Profile:  p,
			Codec:    codec,
			MimeType: mime,
			BaseURL:  base,
		})
	}
	return track, len(track.Representations) > 0
}
