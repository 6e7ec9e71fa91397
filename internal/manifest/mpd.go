package manifest

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"msl/internal/domain"
)

const (
	nsMPD      = "urn:mpeg:dash:schema:mpd:2011"
	nsCENC     = "urn:mpeg:cenc:2013"
	nsWidevine = "urn:mpeg:widevine:2013"

	schemeMP4Protection = "urn:mpeg:dash:mp4protection:2011"
	schemeChannels      = "urn:mpeg:dash:23003:3:audio_channel_configuration:2011"
	schemeRole          = "urn:mpeg:dash:role:2011"

	robustnessHW = "HW_SECURE_CODECS_REQUIRED"
)

type mpdXML struct {
	XMLName  xml.Name  `xml:"MPD"`
	XMLNS    string    `xml:"xmlns,attr"`
	CENC     string    `xml:"xmlns:cenc,attr"`
	Widevine string    `xml:"xmlns:widevine,attr"`
	Duration string    `xml:"mediaPresentationDuration,attr"`
	Period   periodXML `xml:"Period"`
}

type periodXML struct {
	Start          string             `xml:"start,attr"`
	Duration       string             `xml:"duration,attr"`
	AdaptationSets []adaptationSetXML `xml:"AdaptationSet"`
}

type adaptationSetXML struct {
	Lang               string                 `xml:"lang,attr,omitempty"`
	ContentType        string                 `xml:"contentType,attr"`
	MimeType           string                 `xml:"mimeType,attr,omitempty"`
	Impaired           string                 `xml:"impaired,attr,omitempty"`
	Original           string                 `xml:"original,attr,omitempty"`
	Default            string                 `xml:"default,attr,omitempty"`
	ContentProtections []contentProtectionXML `xml:"ContentProtection"`
	Role               *descriptorXML         `xml:"Role"`
	Representations    []representationXML    `xml:"Representation"`
}

type contentProtectionXML struct {
	SchemeIDURI string              `xml:"schemeIdUri,attr"`
	Value       string              `xml:"value,attr,omitempty"`
	DefaultKID  string              `xml:"cenc:default_KID,attr,omitempty"`
	License     *widevineLicenseXML `xml:"widevine:license"`
	PSSH        string              `xml:"cenc:pssh,omitempty"`
}

type widevineLicenseXML struct {
	RobustnessLevel string `xml:"robustness_level,attr"`
}

type descriptorXML struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	Value       string `xml:"value,attr"`
}

type segmentBaseXML struct {
	IndexRange      string `xml:"indexRange,attr"`
	IndexRangeExact string `xml:"indexRangeExact,attr"`
}

type representationXML struct {
	Width                     int             `xml:"width,attr,omitempty"`
	Height                    int             `xml:"height,attr,omitempty"`
	Bandwidth                 int64           `xml:"bandwidth,attr,omitempty"`
	FrameRate                 string          `xml:"frameRate,attr,omitempty"`
	HDCP                      string          `xml:"hdcp,attr,omitempty"`
	NflxContentProfile        string          `xml:"nflxContentProfile,attr,omitempty"`
	NflxProfile               string          `xml:"nflxProfile,attr,omitempty"`
	Codecs                    string          `xml:"codecs,attr,omitempty"`
	MimeType                  string          `xml:"mimeType,attr,omitempty"`
	AudioChannelConfiguration *descriptorXML  `xml:"AudioChannelConfiguration"`
	BaseURL                   string          `xml:"BaseURL"`
	SegmentBase               *segmentBaseXML `xml:"SegmentBase"`
}

// mpdDuration formats whole seconds the way players expect: PT<s>.00S.
func mpdDuration(d time.Duration) string {
	return fmt.Sprintf("PT%d.00S", int64(d/time.Second))
}

func boolAttr(b bool) string { return strconv.FormatBool(b) }

func segmentBase(r domain.ByteRange) *segmentBaseXML {
	return &segmentBaseXML{
		IndexRange:      fmt.Sprintf("%d-%d", r.Start, r.End),
		IndexRangeExact: "true",
	}
}

// RenderMPD renders doc as a single-period DASH MPD on one line.
func RenderMPD(doc domain.ManifestDocument) ([]byte, error) {
	dur := mpdDuration(doc.Duration)
	m := mpdXML{
		XMLNS:    nsMPD,
		CENC:     nsCENC,
		Widevine: nsWidevine,
		Duration: dur,
		Period:   periodXML{Start: "PT0S", Duration: dur},
	}

	for _, vt := range doc.Video {
		as := adaptationSetXML{ContentType: "video", MimeType: "video/mp4"}
		if vt.Protection.DefaultKID != "" {
			as.ContentProtections = append(as.ContentProtections, contentProtectionXML{
				SchemeIDURI: schemeMP4Protection,
				Value:       "cenc",
				DefaultKID:  vt.Protection.DefaultKID,
			})
		}
		as.ContentProtections = append(as.ContentProtections, contentProtectionXML{
			SchemeIDURI: WidevineSchemeURI,
			License:     &widevineLicenseXML{RobustnessLevel: robustnessHW},
			PSSH:        vt.Protection.PSSH,
		})
		for _, r := range vt.Representations {
			as.Representations = append(as.Representations, representationXML{
				Width:              r.Width,
				Height:             r.Height,
				Bandwidth:          r.Bandwidth,
				FrameRate:          r.FrameRate,
				HDCP:               "0.0",
				NflxContentProfile: r.ContentProfile,
				Codecs:             r.Codec,
				MimeType:           "video/mp4",
				BaseURL:            r.BaseURL,
				SegmentBase:        segmentBase(r.IndexRange),
			})
		}
		m.Period.AdaptationSets = append(m.Period.AdaptationSets, as)
	}

	for _, at := range doc.Audio {
		as := adaptationSetXML{
			Lang:        at.Language,
			ContentType: "audio",
			MimeType:    "audio/mp4",
			Impaired:    boolAttr(at.Impaired),
			Original:    boolAttr(at.Original),
			Default:     boolAttr(at.Default),
		}
		for _, r := range at.Representations {
			channels := &descriptorXML{SchemeIDURI: schemeChannels, Value: strconv.Itoa(r.Channels)}
			as.Representations = append(as.Representations, representationXML{
				Bandwidth:                 r.Bandwidth,
				Codecs:                    r.Codec,
				MimeType:                  "audio/mp4",
				AudioChannelConfiguration: channels,
				BaseURL:                   r.BaseURL,
				SegmentBase:               segmentBase(r.IndexRange),
			})
		}
		m.Period.AdaptationSets = append(m.Period.AdaptationSets, as)
	}

	for _, tt := range doc.Text {
		role := "main"
		if tt.Forced {
			role = "forced"
		}
		as := adaptationSetXML{
			Lang:        tt.Language,
			ContentType: "text",
			Role:        &descriptorXML{SchemeIDURI: schemeRole, Value: role},
		}
		for _, r := range tt.Representations {
			as.Representations = append(as.Representations, representationXML{
				NflxProfile: r.Profile,
				Codecs:      r.Codec,
				MimeType:    r.MimeType,
				BaseURL:     r.BaseURL,
			})
		}
		m.Period.AdaptationSets = append(m.Period.AdaptationSets, as)
	}

	body, err := xml.Marshal(m)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(xml.Header, "\n"))
	b.Write(body)
	return []byte(b.String()), nil
}
