package manifest_test

import (
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msl/internal/domain"
	"msl/internal/logging"
	"msl/internal/manifest"
)

func init() { logging.Silence() }

const widevinePSSH = "AAAANHBzc2gAAAAA7e+LqXnWSs6jyCfc1R0h7QAAABQIARIQAAAAAAPSZ0kAAAAAAAAAAA=="

// fixture is one h264 720p video track, one stereo aac track and one forced
// subtitle track.
func fixture() map[string]any {
	return map[string]any{
		"duration":          120000,
		"playbackContextId": "pbc-1",
		"drmContextId":      "drm-1",
		"links":             map[string]any{"license": map[string]any{"href": "/license?id=1"}},
		"video_tracks": []any{map[string]any{
			"drmHeader": map[string]any{
				"keyId": "AAECAwQFBgcICQoLDA0ODw==",
				"bytes": widevinePSSH,
			},
			"streams": []any{map[string]any{
				"content_profile": "playready-h264mpl31-dash",
				"res_w":           1280,
				"res_h":           720,
				"bitrate":         3000,
				"framerate_value": 25,
				"framerate_scale": 1,
				"urls":            []any{map[string]any{"url": "https://cdn/v.mp4"}},
				"sidx":            map[string]any{"offset": 1000, "size": 300},
			}},
		}},
		"audio_tracks": []any{map[string]any{
			"language":  "en",
			"trackType": "PRIMARY",
			"isNative":  true,
			"streams": []any{map[string]any{
				"content_profile": "heaac-2-dash",
				"bitrate":         96,
				"channels":        "2.0",
				"urls":            []any{map[string]any{"url": "https://cdn/a.mp4"}},
			}},
		}},
		"timedtexttracks": []any{
			map[string]any{
				"language":          "en",
				"isForcedNarrative": true,
				"ttDownloadables": map[string]any{
					"webvtt-lssdh-ios8": map[string]any{"urls": []any{map[string]any{"url": "https://cdn/s.vtt"}}},
				},
			},
			map[string]any{"isNoneTrack": true, "ttDownloadables": map[string]any{}},
		},
	}
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestTranscode_Fixture(t *testing.T) {
	doc, err := manifest.Transcode(encode(t, fixture()))
	require.NoError(t, err)

	assert.Equal(t, 120*time.Second, doc.Duration)
	assert.Equal(t, "pbc-1", doc.PlaybackContextID)
	assert.Equal(t, "drm-1", doc.DRMContextID)
	assert.Equal(t, "/license?id=1", doc.LicenseURL)

	require.Len(t, doc.Video, 1)
	require.Len(t, doc.Video[0].Representations, 1)
	v := doc.Video[0].Representations[0]
	assert.Equal(t, 1280, v.Width)
	assert.Equal(t, 720, v.Height)
	assert.Equal(t, int64(3072000), v.Bandwidth)
	assert.Equal(t, "h264", v.Codec)
	assert.Equal(t, "25/1", v.FrameRate)
	assert.Equal(t, domain.ByteRange{End: 1300}, v.IndexRange)
	assert.Equal(t, "00010203-0405-0607-0809-0a0b0c0d0e0f", doc.Video[0].Protection.DefaultKID)
	assert.Equal(t, widevinePSSH, doc.Video[0].Protection.PSSH)

	require.Len(t, doc.Audio, 1)
	require.Len(t, doc.Audio[0].Representations, 1)
	a := doc.Audio[0].Representations[0]
	assert.Equal(t, "aac", a.Codec)
	assert.Equal(t, 2, a.Channels)
	assert.Equal(t, domain.ByteRange{End: manifest.IndexSizeHeuristic(120)}, a.IndexRange)
	assert.True(t, doc.Audio[0].Default)
	assert.True(t, doc.Audio[0].Original)
	assert.False(t, doc.Audio[0].Impaired)

	require.Len(t, doc.Text, 1)
	assert.True(t, doc.Text[0].Forced)
	require.Len(t, doc.Text[0].Representations, 1)
	assert.Equal(t, "wvtt", doc.Text[0].Representations[0].Codec)
	assert.Equal(t, "text/vtt", doc.Text[0].Representations[0].MimeType)
}

func TestTranscode_Deterministic(t *testing.T) {
	raw := encode(t, fixture())
	a, err := manifest.Transcode(raw)
	require.NoError(t, err)
	b, err := manifest.Transcode(raw)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ma, err := manifest.RenderMPD(a)
	require.NoError(t, err)
	mb, err := manifest.RenderMPD(b)
	require.NoError(t, err)
	assert.Equal(t, ma, mb)
}

func TestTranscode_MissingRequiredFields(t *testing.T) {
	for _, key := range []string{"duration", "video_tracks", "audio_tracks"} {
		m := fixture()
		delete(m, key)
		_, err := manifest.Transcode(encode(t, m))
		assert.ErrorIs(t, err, domain.ErrManifestParse, key)
	}

	_, err := manifest.Transcode([]byte(`{"duration":`))
	assert.ErrorIs(t, err, domain.ErrManifestParse)
}

func TestTranscode_BadStreamsAreParseErrors(t *testing.T) {
	m := fixture()
	m["audio_tracks"].([]any)[0].(map[string]any)["streams"].([]any)[0].(map[string]any)["channels"] = "stereo"
	_, err := manifest.Transcode(encode(t, m))
	assert.ErrorIs(t, err, domain.ErrManifestParse)

	m = fixture()
	m["video_tracks"].([]any)[0].(map[string]any)["streams"].([]any)[0].(map[string]any)["urls"] = []any{}
	_, err = manifest.Transcode(encode(t, m))
	assert.ErrorIs(t, err, domain.ErrManifestParse)
}

func TestTranscode_CodecSelection(t *testing.T) {
	cases := map[string]string{
		"playready-h264hpl40-dash":      "h264",
		"hevc-main10-L41-dash-cenc":     "hevc",
		"hevc-hdr-main10-L50-dash-cenc": "hevc",
		"vp9-profile0-L31-dash-cenc":    "vp9.0.31",
		"vp9-profile2-L40-dash-cenc":    "vp9.2.40",
	}
	for profile, want := range cases {
		m := fixture()
		m["video_tracks"].([]any)[0].(map[string]any)["streams"].([]any)[0].(map[string]any)["content_profile"] = profile
		doc, err := manifest.Transcode(encode(t, m))
		require.NoError(t, err, profile)
		assert.Equal(t, want, doc.Video[0].Representations[0].Codec, profile)
	}
}

func TestTranscode_AudioChannelsAndDolby(t *testing.T) {
	for layout, want := range map[string]int{"1.0": 1, "2.0": 2, "5.1": 6, "7.1": 8} {
		m := fixture()
		s := m["audio_tracks"].([]any)[0].(map[string]any)["streams"].([]any)[0].(map[string]any)
		s["channels"] = layout
		s["content_profile"] = "ddplus-5.1-dash"
		doc, err := manifest.Transcode(encode(t, m))
		require.NoError(t, err)
		assert.Equal(t, want, doc.Audio[0].Representations[0].Channels, layout)
		assert.Equal(t, "ec-3", doc.Audio[0].Representations[0].Codec)
	}
}

func TestTranscode_AudioDefaultPerLanguage(t *testing.T) {
	m := fixture()
	first := m["audio_tracks"].([]any)[0].(map[string]any)
	second := map[string]any{"language": "en", "trackType": "ASSISTIVE", "streams": first["streams"]}
	third := map[string]any{"language": "de", "trackType": "PRIMARY", "streams": first["streams"]}
	m["audio_tracks"] = []any{first, second, third}

	doc, err := manifest.Transcode(encode(t, m))
	require.NoError(t, err)
	require.Len(t, doc.Audio, 3)
	assert.True(t, doc.Audio[0].Default)
	assert.False(t, doc.Audio[1].Default)
	assert.True(t, doc.Audio[1].Impaired)
	assert.True(t, doc.Audio[2].Default)
}

func TestTranscode_IndexRangeSources(t *testing.T) {
	m := fixture()
	s := m["video_tracks"].([]any)[0].(map[string]any)["streams"].([]any)[0].(map[string]any)
	s["startByteOffset"] = 777
	doc, err := manifest.Transcode(encode(t, m))
	require.NoError(t, err)
	assert.Equal(t, int64(777), doc.Video[0].Representations[0].IndexRange.End)

	delete(s, "startByteOffset")
	delete(s, "sidx")
	doc, err = manifest.Transcode(encode(t, m))
	require.NoError(t, err)
	assert.Equal(t, int64(20720), doc.Video[0].Representations[0].IndexRange.End)
}

func TestTranscode_TextProfiles(t *testing.T) {
	m := fixture()
	m["timedtexttracks"] = []any{map[string]any{
		"language": "fr",
		"ttDownloadables": map[string]any{
			"webvtt-lssdh-ios8": map[string]any{"urls": []any{map[string]any{"url": "https://cdn/fr.vtt"}}},
			"dfxp-ls-sdh":       map[string]any{"urls": []any{map[string]any{"url": "https://cdn/fr.xml"}}},
			"simplesdh":         map[string]any{"urls": []any{}},
		},
	}}
	doc, err := manifest.Transcode(encode(t, m))
	require.NoError(t, err)
	require.Len(t, doc.Text, 1)
	assert.False(t, doc.Text[0].Forced)
	reps := doc.Text[0].Representations
	require.Len(t, reps, 2)
	assert.Equal(t, "dfxp-ls-sdh", reps[0].Profile)
	assert.Equal(t, "stpp", reps[0].Codec)
	assert.Equal(t, "application/ttml+xml", reps[0].MimeType)
	assert.Equal(t, "webvtt-lssdh-ios8", reps[1].Profile)
}

func TestTranscode_PSSH(t *testing.T) {
	m := fixture()
	drm := m["video_tracks"].([]any)[0].(map[string]any)["drmHeader"].(map[string]any)
	delete(drm, "keyId")
	doc, err := manifest.Transcode(encode(t, m))
	require.NoError(t, err)
	assert.Empty(t, doc.Video[0].Protection.DefaultKID)
	assert.Equal(t, widevinePSSH, doc.Video[0].Protection.PSSH)

	raw, err := base64.StdEncoding.DecodeString(widevinePSSH)
	require.NoError(t, err)
	raw[12] ^= 0xff // first byte of the system id
	drm["bytes"] = base64.StdEncoding.EncodeToString(raw)
	_, err = manifest.Transcode(encode(t, m))
	assert.ErrorIs(t, err, domain.ErrManifestParse)

	drm["bytes"] = "bm90IGEgYm94"
	_, err = manifest.Transcode(encode(t, m))
	assert.ErrorIs(t, err, domain.ErrManifestParse)
}

func TestIndexSizeHeuristic(t *testing.T) {
	assert.Equal(t, int64(20000), manifest.IndexSizeHeuristic(0))
	assert.Equal(t, int64(20720), manifest.IndexSizeHeuristic(120))
	assert.Equal(t, int64(20720), manifest.IndexSizeHeuristic(121))
}

type mpdDoc struct {
	Duration string `xml:"mediaPresentationDuration,attr"`
	Period   struct {
		Start string `xml:"start,attr"`
		Sets  []struct {
			ContentType string `xml:"contentType,attr"`
			Lang        string `xml:"lang,attr"`
			Default     string `xml:"default,attr"`
			Protections []struct {
				Scheme string `xml:"schemeIdUri,attr"`
				PSSH   string `xml:"pssh"`
			} `xml:"ContentProtection"`
			Role *struct {
				Value string `xml:"value,attr"`
			} `xml:"Role"`
			Reps []struct {
				Width     int    `xml:"width,attr"`
				Height    int    `xml:"height,attr"`
				Bandwidth int64  `xml:"bandwidth,attr"`
				Codecs    string `xml:"codecs,attr"`
				BaseURL   string `xml:"BaseURL"`
				Channels  *struct {
					Value string `xml:"value,attr"`
				} `xml:"AudioChannelConfiguration"`
				SegmentBase *struct {
					IndexRange string `xml:"indexRange,attr"`
				} `xml:"SegmentBase"`
			} `xml:"Representation"`
		} `xml:"AdaptationSet"`
	} `xml:"Period"`
}

func TestRenderMPD_Fixture(t *testing.T) {
	doc, err := manifest.Transcode(encode(t, fixture()))
	require.NoError(t, err)
	out, err := manifest.RenderMPD(doc)
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, "\n")
	assert.Contains(t, s, `<?xml version="1.0" encoding="UTF-8"?><MPD`)
	assert.Contains(t, s, `xmlns="urn:mpeg:dash:schema:mpd:2011"`)
	assert.Contains(t, s, `xmlns:cenc="urn:mpeg:cenc:2013"`)
	assert.Contains(t, s, `cenc:default_KID="00010203-0405-0607-0809-0a0b0c0d0e0f"`)
	assert.Contains(t, s, `<widevine:license robustness_level="HW_SECURE_CODECS_REQUIRED">`)
	assert.Contains(t, s, `hdcp="0.0"`)
	assert.Contains(t, s, `nflxContentProfile="playready-h264mpl31-dash"`)

	var m mpdDoc
	require.NoError(t, xml.Unmarshal(out, &m))
	assert.Equal(t, "PT120.00S", m.Duration)
	assert.Equal(t, "PT0S", m.Period.Start)
	require.Len(t, m.Period.Sets, 3)

	video := m.Period.Sets[0]
	assert.Equal(t, "video", video.ContentType)
	require.Len(t, video.Protections, 2)
	assert.Equal(t, "urn:mpeg:dash:mp4protection:2011", video.Protections[0].Scheme)
	assert.Equal(t, manifest.WidevineSchemeURI, video.Protections[1].Scheme)
	assert.Equal(t, widevinePSSH, video.Protections[1].PSSH)
	require.Len(t, video.Reps, 1)
	assert.Equal(t, 1280, video.Reps[0].Width)
	assert.Equal(t, 720, video.Reps[0].Height)
	assert.Equal(t, int64(3072000), video.Reps[0].Bandwidth)
	assert.Equal(t, "h264", video.Reps[0].Codecs)
	assert.Equal(t, "https://cdn/v.mp4", video.Reps[0].BaseURL)
	assert.Equal(t, "0-1300", video.Reps[0].SegmentBase.IndexRange)

	audio := m.Period.Sets[1]
	assert.Equal(t, "audio", audio.ContentType)
	assert.Equal(t, "en", audio.Lang)
	assert.Equal(t, "true", audio.Default)
	require.Len(t, audio.Reps, 1)
	assert.Equal(t, "aac", audio.Reps[0].Codecs)
	require.NotNil(t, audio.Reps[0].Channels)
	assert.Equal(t, "2", audio.Reps[0].Channels.Value)
	assert.Equal(t, "0-20720", audio.Reps[0].SegmentBase.IndexRange)

	text := m.Period.Sets[2]
	assert.Equal(t, "text", text.ContentType)
	require.NotNil(t, text.Role)
	assert.Equal(t, "forced", text.Role.Value)
	require.Len(t, text.Reps, 1)
	assert.Equal(t, "wvtt", text.Reps[0].Codecs)
	assert.Nil(t, text.Reps[0].SegmentBase)
}

func TestRenderMPD_UnprotectedVideoOmitsKID(t *testing.T) {
	m := fixture()
	delete(m["video_tracks"].([]any)[0].(map[string]any), "drmHeader")
	doc, err := manifest.Transcode(encode(t, m))
	require.NoError(t, err)
	out, err := manifest.RenderMPD(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "default_KID")
	assert.NotContains(t, string(out), "cenc:pssh")
	assert.Contains(t, string(out), manifest.WidevineSchemeURI)
}

func TestProfiles(t *testing.T) {
	base := manifest.Profiles(manifest.ProfileOptions{})
	assert.Contains(t, base, "playready-h264mpl30-dash")
	assert.Contains(t, base, "heaac-2-dash")
	assert.Contains(t, base, "simplesdh")
	assert.NotContains(t, base, "webvtt-lssdh-ios8")
	assert.NotContains(t, base, "ddplus-5.1-dash")

	hdrOnly := manifest.Profiles(manifest.ProfileOptions{HDR: true})
	assert.Equal(t, base, hdrOnly)

	all := manifest.Profiles(manifest.ProfileOptions{HEVC: true, HDR: true, DolbyVision: true, VP9: true, Dolby: true, WebVTT: true})
	for _, p := range []string{
		"webvtt-lssdh-ios8",
		"hevc-main-L30-dash-cenc",
		"hevc-main10-L41-dash-cenc-prk",
		"hevc-main10-L50-L51-dash-cenc-tl",
		"hevc-hdr-main10-L51-dash-cenc-prk",
		"hevc-dv5-main10-L30-dash-cenc-prk",
		"vp9-profile0-L62-dash-cenc",
		"ddplus-2.0-dash",
	} {
		assert.Contains(t, all, p)
	}
	seen := map[string]bool{}
	for _, p := range all {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
	}
}
