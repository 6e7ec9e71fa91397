package types

import "time"

// ByteRange is an inclusive byte range, rendered as "start-end".
type ByteRange struct {
	Start int64
	End   int64
}

// ContentProtection carries the DRM metadata attached to a video track.
type ContentProtection struct {
	DefaultKID string // UUID form, empty if the track has no key id
	PSSH       string // base64 PSSH box, empty if absent
}

// VideoRepresentation is one encoding of a video track.
type VideoRepresentation struct {
	Codec          string
	ContentProfile string
	Bandwidth      int64
	Width          int
	Height         int
	FrameRate      string
	BaseURL        string
	IndexRange     ByteRange
}

// VideoTrack is one video adaptation.
type VideoTrack struct {
	Protection      ContentProtection
	Representations []VideoRepresentation
}

// AudioRepresentation is one encoding of an audio track.
type AudioRepresentation struct {
	Codec          string
	ContentProfile string
	Bandwidth      int64
	Channels       int
	BaseURL        string
	IndexRange     ByteRange
}

// AudioTrack is one audio adaptation, grouped by language.
type AudioTrack struct {
	Language        string
	Impaired        bool
	Original        bool
	Default         bool
	Representations []AudioRepresentation
}

// TextRepresentation is one downloadable subtitle profile.
type TextRepresentation struct {
	Profile  string
	Codec    string
	MimeType string
	BaseURL  string
}

// TextTrack is one subtitle/caption adaptation.
type TextTrack struct {
	Language        string
	Forced          bool
	Representations []TextRepresentation
}

// ManifestDocument is the transcoded, player-ready description of a title.
type ManifestDocument struct {
	Duration          time.Duration
	PlaybackContextID string
	DRMContextID      string
	LicenseURL        string
	Video             []VideoTrack
	Audio             []AudioTrack
	Text              []TextTrack
}
