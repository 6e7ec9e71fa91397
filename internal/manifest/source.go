package manifest

// sourceManifest mirrors the parts of the manifest result that are read.
// Pointer and nil-able fields distinguish "absent" from "zero".
type sourceManifest struct {
	Duration          *int64             `json:"duration"`
	PlaybackContextID string             `json:"playbackContextId"`
	DRMContextID      string             `json:"drmContextId"`
	Links             sourceLinks        `json:"links"`
	VideoTracks       []sourceVideoTrack `json:"video_tracks"`
	AudioTracks       []sourceAudioTrack `json:"audio_tracks"`
	TextTracks        []sourceTextTrack  `json:"timedtexttracks"`
}

type sourceLinks struct {
	License struct {
		Href string `json:"href"`
	} `json:"license"`
}

type sourceURL struct {
	URL string `json:"url"`
}

type sourceDRMHeader struct {
	KeyID string `json:"keyId"`
	Bytes string `json:"bytes"`
}

type sourceVideoTrack struct {
	DRMHeader *sourceDRMHeader    `json:"drmHeader"`
	Streams   []sourceVideoStream `json:"streams"`
}

type sourceSIDX struct {
	Offset int64 `json:"offset"`
	Size   int64 `json:"size"`
}

type sourceVideoStream struct {
	ContentProfile  string      `json:"content_profile"`
	Width           int         `json:"res_w"`
	Height          int         `json:"res_h"`
	Bitrate         int64       `json:"bitrate"`
	FramerateValue  int         `json:"framerate_value"`
	FramerateScale  int         `json:"framerate_scale"`
	URLs            []sourceURL `json:"urls"`
	StartByteOffset *int64      `json:"startByteOffset"`
	SIDX            *sourceSIDX `json:"sidx"`
}

type sourceAudioTrack struct {
	Language  string              `json:"language"`
	TrackType string              `json:"trackType"`
	IsNative  bool                `json:"isNative"`
	Streams   []sourceAudioStream `json:"streams"`
}

type sourceAudioStream struct {
	ContentProfile string      `json:"content_profile"`
	Bitrate        int64       `json:"bitrate"`
	Channels       string      `json:"channels"`
	URLs           []sourceURL `json:"urls"`
}

type sourceDownloadable struct {
	URLs []sourceURL `json:"urls"`
}

type sourceTextTrack struct {
	Language          string                        `json:"language"`
	IsNoneTrack       bool                          `json:"isNoneTrack"`
	IsForcedNarrative bool                          `json:"isForcedNarrative"`
	Downloadables     map[string]sourceDownloadable `json:"ttDownloadables"`
}

func firstURL(urls []sourceURL) string {
	for _, u := range urls {
		if u.URL != "" {
			return u.URL
		}
	}
	return ""
}
