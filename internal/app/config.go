package app

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"msl/internal/domain"
	"msl/internal/manifest"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Default endpoints of the cadmium MSL API.
const (
	DefaultManifestURL = "https://www.netflix.com/api/msl/NFCDCH-LX/cadmium/manifest"
	DefaultLicenseURL  = "https://www.netflix.com/api/msl/NFCDCH-LX/cadmium/license"
	DefaultTimeout     = 30 * time.Second
)

// ErrNoESN is returned when no device ESN was configured.
var ErrNoESN = errors.New("app: no ESN configured (set --esn or MSL_ESN)")

// Config holds runtime wiring options for building the app.
type Config struct {
	Home        string   // state directory, e.g. $HOME/.msl
	ESN         string   // device identity sent as sender/identity
	ManifestURL string   // MSL manifest endpoint
	LicenseURL  string   // MSL license endpoint
	Languages   []string // preferred languages, e.g. en-US
	Profiles    manifest.ProfileOptions
	Timeout     time.Duration // per MSL round trip
	Passphrase  string        // when set, state is sealed at rest
	Backend     string        // BackendFile or BackendSQLite
	MaxInFlight int

	// Interactive allows prompting on the terminal for credentials when the
	// MSL_* variables are unset.
	Interactive bool
	// Credentials overrides the environment/prompt chain.
	Credentials domain.CredentialStore

	HTTP       *http.Client          // optional; defaults to http.DefaultClient
	Registerer prometheus.Registerer // optional; metrics stay unregistered when nil
}

func (c Config) withDefaults() (Config, error) {
	if c.ESN == "" {
		return c, ErrNoESN
	}
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return c, err
		}
		c.Home = filepath.Join(home, ".msl")
	}
	if c.ManifestURL == "" {
		c.ManifestURL = DefaultManifestURL
	}
	if c.LicenseURL == "" {
		c.LicenseURL = DefaultLicenseURL
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"en-US"}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.HTTP == nil {
		c.HTTP = http.DefaultClient
	}
	return c, nil
}
