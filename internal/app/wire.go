package app

import (
	"fmt"
	"os"
	"path/filepath"

	"msl/internal/credentials"
	"msl/internal/domain"
	"msl/internal/keys"
	"msl/internal/metrics"
	"msl/internal/protocol/framing"
	"msl/internal/services/handshake"
	"msl/internal/services/playback"
	"msl/internal/store"
	"msl/internal/transport"
)

// SQLiteFile is the database name under Home for the sqlite backend.
const SQLiteFile = "msl.db"

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config    Config
	Store     domain.KeyValueStore
	Keys      *keys.Manager
	Sessions  *store.SessionStore
	Framer    *framing.Framer
	Transport *transport.HTTP
	Handshake *handshake.Service
	Playback  *playback.Client
	Metrics   *metrics.Metrics

	close func() error
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, fmt.Errorf("create home: %w", err)
	}

	kv, closeKV, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	// Protocol plumbing
	km := keys.New(kv)
	sessions := store.NewSessionStore(kv)
	framer := framing.New(cfg.ESN, cfg.Languages)
	tr := transport.NewHTTP(cfg.Timeout)
	tr.HTTP = cfg.HTTP
	m := metrics.New(cfg.Registerer)

	// High-level services
	hs := handshake.New(km, framer, tr, sessions, cfg.ManifestURL).WithMetrics(m)
	pb := playback.New(playback.Options{
		ManifestURL: cfg.ManifestURL,
		LicenseURL:  cfg.LicenseURL,
		Languages:   cfg.Languages,
		Profiles:    cfg.Profiles,
		MaxInFlight: cfg.MaxInFlight,
	}, framer, tr, sessions, hs, credentialStore(cfg)).
		WithCache(kv).
		WithMetrics(m)

	return &Wire{
		Config:    cfg,
		Store:     kv,
		Keys:      km,
		Sessions:  sessions,
		Framer:    framer,
		Transport: tr,
		Handshake: hs,
		Playback:  pb,
		Metrics:   m,
		close:     closeKV,
	}, nil
}

// Close releases the backing store.
func (w *Wire) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

func openStore(cfg Config) (domain.KeyValueStore, func() error, error) {
	var (
		kv      domain.KeyValueStore
		closeFn = func() error { return nil }
	)
	switch cfg.Backend {
	case BackendFile:
		fkv, err := store.NewFileKV(cfg.Home)
		if err != nil {
			return nil, nil, err
		}
		kv = fkv
	case BackendSQLite:
		db, err := store.OpenSQLite(filepath.Join(cfg.Home, SQLiteFile))
		if err != nil {
			return nil, nil, err
		}
		kv, closeFn = db, db.Close
	default:
		return nil, nil, fmt.Errorf("app: unknown store backend %q", cfg.Backend)
	}
	if cfg.Passphrase != "" {
		kv = store.NewSealedKV(kv, cfg.Passphrase)
	}
	return kv, closeFn, nil
}

func credentialStore(cfg Config) domain.CredentialStore {
	if cfg.Credentials != nil {
		return cfg.Credentials
	}
	chain := credentials.Chain{credentials.Env{Getenv: os.Getenv}}
	if cfg.Interactive {
		chain = append(chain, &credentials.Cached{Inner: credentials.NewPrompt()})
	}
	return chain
}
