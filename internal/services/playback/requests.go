package playback

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"msl/internal/manifest"
)

type manifestParams struct {
	ViewableID                      int64                        `json:"viewableId"`
	Profiles                        []string                     `json:"profiles"`
	DRMType                         string                       `json:"drmType"`
	DRMVersion                      int                          `json:"drmVersion"`
	UsePsshBox                      bool                         `json:"usePsshBox"`
	Flavor                          string                       `json:"flavor"`
	Prefetch                        bool                         `json:"prefetch"`
	IsBranching                     bool                         `json:"isBranching"`
	SupportsWatermark               bool                         `json:"supportsWatermark"`
	MSLRequired                     bool                         `json:"mslRequired"`
	UseHTTPSStreams                 bool                         `json:"useHttpsStreams"`
	ImageSubtitleHeight             int                          `json:"imageSubtitleHeight"`
	UseBetterTextURLs               bool                         `json:"useBetterTextUrls"`
	SupportsUnequalizedDownloadable bool                         `json:"supportsUnequalizedDownloadables"`
	TitleSpecificData               map[string]titleSpecificData `json:"titleSpecificData"`
	VideoOutputInfo                 []videoOutputInfo            `json:"videoOutputInfo"`
}

type titleSpecificData struct {
	RestrictedProfileGroup string `json:"restrictedProfileGroup"`
	Unletterboxed          bool   `json:"unletterboxed"`
}

type videoOutputInfo struct {
	Type                  string   `json:"type"`
	OutputType            string   `json:"outputType"`
	SupportedHdcpVersions []string `json:"supportedHdcpVersions"`
	IsHdcpEngaged         bool     `json:"isHdcpEngaged"`
}

type manifestRequest struct {
	Version   int            `json:"version"`
	URL       string         `json:"url"`
	Languages []string       `json:"languages"`
	Params    manifestParams `json:"params"`
}

func buildManifestRequest(viewableID int64, languages []string, opts manifest.ProfileOptions) ([]byte, error) {
	return json.Marshal(manifestRequest{
		Version:   2,
		URL:       "/manifest",
		Languages: languages,
		Params: manifestParams{
			ViewableID:                      viewableID,
			Profiles:                        manifest.Profiles(opts),
			DRMType:                         "widevine",
			DRMVersion:                      0,
			UsePsshBox:                      true,
			Flavor:                          "PRE_FETCH",
			SupportsWatermark:               true,
			MSLRequired:                     true,
			ImageSubtitleHeight:             720,
			UseBetterTextURLs:               true,
			SupportsUnequalizedDownloadable: true,
			TitleSpecificData: map[string]titleSpecificData{
				strconv.FormatInt(viewableID, 10): {RestrictedProfileGroup: "restrictAudioAndVideo", Unletterboxed: true},
			},
			VideoOutputInfo: []videoOutputInfo{{
				Type:                  "DigitalVideoOutputDescriptor",
				OutputType:            "digitalOther",
				SupportedHdcpVersions: []string{"2.2"},
				IsHdcpEngaged:         true,
			}},
		},
	})
}

type licenseParams struct {
	SessionID       string `json:"sessionId"`
	ClientTime      int64  `json:"clientTime"`
	ChallengeBase64 string `json:"challengeBase64"`
	XID             string `json:"xid"`
	PlaybackType    string `json:"playbackType"`
}

type licenseRequest struct {
	Version   int             `json:"version"`
	URL       string          `json:"url"`
	Languages []string        `json:"languages"`
	Params    []licenseParams `json:"params"`
	Echo      string          `json:"echo"`
}

func buildLicenseRequest(href string, languages []string, challenge []byte, sessionID string, now time.Time) ([]byte, error) {
	id := now.UnixNano() / int64(100*time.Microsecond)
	return json.Marshal(licenseRequest{
		Version:   2,
		URL:       href,
		Languages: languages,
		Params: []licenseParams{{
			SessionID:       sessionID,
			ClientTime:      id / 10000,
			ChallengeBase64: base64.StdEncoding.EncodeToString(challenge),
			XID:             strconv.FormatInt(id+1610, 10),
			PlaybackType:    "standard",
		}},
		Echo: "sessionId",
	})
}

type licenseResult struct {
	SessionID             string `json:"sessionId"`
	LicenseResponseBase64 string `json:"licenseResponseBase64"`
}
