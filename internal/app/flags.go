package app

import (
	"github.com/spf13/pflag"
)

// Environment variables consulted when the matching flag is unset.
const (
	EnvHome       = "MSL_HOME"
	EnvESN        = "MSL_ESN"
	EnvPassphrase = "MSL_PASSPHRASE"
	EnvStore      = "MSL_STORE"
)

// BindFlags registers the shared configuration flags on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Home, "home", "", "state dir (default ~/.msl, env "+EnvHome+")")
	fs.StringVar(&c.ESN, "esn", "", "device ESN (env "+EnvESN+")")
	fs.StringVarP(&c.Passphrase, "passphrase", "p", "", "passphrase to seal state at rest (env "+EnvPassphrase+")")
	fs.StringVar(&c.Backend, "store", "", "state backend: file or sqlite (env "+EnvStore+")")
	fs.DurationVar(&c.Timeout, "timeout", DefaultTimeout, "timeout per MSL round trip")
	fs.StringVar(&c.ManifestURL, "manifest-url", DefaultManifestURL, "MSL manifest endpoint")
	fs.StringVar(&c.LicenseURL, "license-url", DefaultLicenseURL, "MSL license endpoint")
	fs.StringSliceVar(&c.Languages, "lang", []string{"en-US"}, "preferred languages")
	fs.IntVar(&c.MaxInFlight, "max-in-flight", 2, "concurrent MSL round trips")
	fs.BoolVar(&c.Profiles.HEVC, "hevc", false, "request HEVC profiles")
	fs.BoolVar(&c.Profiles.HDR, "hdr", false, "request HDR10 profiles (needs --hevc)")
	fs.BoolVar(&c.Profiles.DolbyVision, "dolby-vision", false, "request Dolby Vision profiles (needs --hevc)")
	fs.BoolVar(&c.Profiles.VP9, "vp9", false, "request VP9 profiles")
	fs.BoolVar(&c.Profiles.Dolby, "dolby", false, "request Dolby Digital Plus audio")
	fs.BoolVar(&c.Profiles.WebVTT, "webvtt", false, "request WebVTT subtitles instead of simplesdh")
}

// ApplyEnv fills unset fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = getenv(key)
		}
	}
	fill(&c.Home, EnvHome)
	fill(&c.ESN, EnvESN)
	fill(&c.Passphrase, EnvPassphrase)
	fill(&c.Backend, EnvStore)
}
