package manifest

// ProfileOptions selects the optional stream families requested from the
// manifest endpoint.
type ProfileOptions struct {
	HEVC        bool
	HDR         bool
	DolbyVision bool
	VP9         bool
	Dolby       bool
	// WebVTT requests webvtt subtitles instead of simplesdh.
	WebVTT bool
}

var baseProfiles = []string{
	"playready-h264mpl30-dash", "playready-h264mpl31-dash", "playready-h264mpl40-dash",
	"playready-h264hpl30-dash", "playready-h264hpl31-dash", "playready-h264hpl40-dash",
	"heaac-2-dash", "BIF240", "BIF320",
}

var levels = []string{"L30", "L31", "L40", "L41", "L50", "L51"}

// Profiles returns the content profiles to request for opts. HDR and Dolby
// Vision are only requested together with HEVC.
func Profiles(opts ProfileOptions) []string {
	out := append([]string(nil), baseProfiles...)
	if opts.WebVTT {
		out = append(out, "webvtt-lssdh-ios8")
	} else {
		out = append(out, "simplesdh")
	}

	if opts.HEVC {
		for _, p := range []string{"hevc-main-", "hevc-main10-"} {
			for _, l := range levels {
				out = append(out, p+l+"-dash-cenc")
			}
		}
		for _, l := range levels[:4] {
			out = append(out, "hevc-main10-"+l+"-dash-cenc-prk")
		}
		for _, p := range []string{"hevc-main-", "hevc-main10-"} {
			for _, pair := range []string{"L30-L31", "L31-L40", "L40-L41", "L50-L51"} {
				out = append(out, p+pair+"-dash-cenc-tl")
			}
		}
		if opts.HDR {
			for _, suffix := range []string{"-dash-cenc", "-dash-cenc-prk"} {
				for _, l := range levels {
					out = append(out, "hevc-hdr-main10-"+l+suffix)
				}
			}
		}
		if opts.DolbyVision {
			for _, l := range levels {
				out = append(out, "hevc-dv-main10-"+l+"-dash-cenc")
			}
			for _, l := range levels {
				out = append(out, "hevc-dv5-main10-"+l+"-dash-cenc-prk")
			}
		}
	}

	if opts.VP9 {
		for _, l := range []string{"L30", "L31", "L32", "L40", "L41", "L50", "L51", "L52", "L60", "L61", "L62"} {
			out = append(out, "vp9-profile0-"+l+"-dash-cenc")
		}
	}
	if opts.Dolby {
		out = append(out, "ddplus-2.0-dash", "ddplus-5.1-dash")
	}
	return out
}
