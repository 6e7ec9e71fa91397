package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"msl/internal/crypto"
	"msl/internal/domain"
	"msl/internal/logging"
	"msl/internal/manifest"
	"msl/internal/metrics"
	"msl/internal/protocol/envelope"
	"msl/internal/protocol/framing"
	"msl/internal/store"
	"msl/internal/util/memzero"
)

var log = logging.Log

// ErrNoManifest is returned by License before any manifest was loaded.
var ErrNoManifest = errors.New("playback: no manifest loaded, license url unknown")

// Endpoint labels used in logs and metrics.
const (
	EndpointManifest = "manifest"
	EndpointLicense  = "license"
)

// Options configures a Client.
type Options struct {
	ManifestURL string
	LicenseURL  string
	Languages   []string
	Profiles    manifest.ProfileOptions
	// MaxInFlight caps concurrent round trips; 0 means 2.
	MaxInFlight int
}

type phase int

const (
	phaseNoSession phase = iota
	phaseHandshaking
	phaseActive
)

func (p phase) String() string {
	switch p {
	case phaseHandshaking:
		return "handshaking"
	case phaseActive:
		return "active"
	default:
		return "no-session"
	}
}

// Client implements domain.PlaybackService.
type Client struct {
	opts       Options
	framer     *framing.Framer
	transport  domain.Transport
	sessions   domain.SessionStore
	handshaker domain.HandshakeService
	creds      domain.CredentialStore
	cache      domain.KeyValueStore
	metrics    *metrics.Metrics
	now        func() time.Time
	sem        chan struct{}

	mu             sync.RWMutex
	phase          phase
	state          domain.SessionState
	generation     uint64
	loaded         bool
	cryptoFailures int

	ctxMu           sync.Mutex
	licenseHref     string
	playbackContext string
	drmContext      string
}

// New constructs a Client. creds may be nil when the stored session already
// carries a user id token.
func New(
	opts Options,
	framer *framing.Framer,
	transport domain.Transport,
	sessions domain.SessionStore,
	handshaker domain.HandshakeService,
	creds domain.CredentialStore,
) *Client {
	n := opts.MaxInFlight
	if n <= 0 {
		n = 2
	}
	return &Client{
		opts:       opts,
		framer:     framer,
		transport:  transport,
		sessions:   sessions,
		handshaker: handshaker,
		creds:      creds,
		now:        time.Now,
		sem:        make(chan struct{}, n),
	}
}

// WithCache stores the last manifest JSON and MPD in kv.
func (c *Client) WithCache(kv domain.KeyValueStore) *Client {
	c.cache = kv
	return c
}

// WithMetrics records round trips in m.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// WithClock replaces the time source used for cookies and license ids.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Generation returns the number of session key generations installed so far.
func (c *Client) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Handshake forces a new key exchange regardless of the current state.
func (c *Client) Handshake(ctx context.Context) error {
	c.mu.RLock()
	seen := c.generation
	c.mu.RUnlock()
	if _, err := c.establish(ctx, seen, true); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSecureSession, err)
	}
	return nil
}

// usableLocked reports whether requests may be framed with the current state.
func (c *Client) usableLocked() bool {
	return c.phase == phaseActive && !c.sessions.IsRenewalDue(c.state.MasterToken)
}

// establish moves the client to Active, loading persisted state on first use
// and handshaking when needed. seen is the generation the caller found
// unusable; if another caller has already replaced it, nothing is done.
func (c *Client) establish(ctx context.Context, seen uint64, force bool) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.generation != seen && c.usableLocked() {
		return c.generation, nil
	}

	if !c.loaded {
		st, ok, err := c.sessions.Load()
		if err != nil {
			// A handshake now would overwrite state we could not read.
			log.WithError(err).Warn("playback: stored session unreadable")
			return 0, err
		}
		c.loaded = true
		if ok {
			c.install(st)
			if !force && c.usableLocked() {
				log.WithField("generation", c.generation).Debug("playback: resumed stored session")
				return c.generation, nil
			}
			if !force {
				log.Info("playback: stored master token due for renewal")
			}
		}
	}

	prev := c.phase
	c.phase = phaseHandshaking
	log.WithFields(logrus.Fields{"from": prev.String(), "forced": force}).Debug("playback: handshaking")
	st, err := c.handshaker.Handshake(ctx)
	if err != nil {
		c.phase = phaseNoSession
		if force && prev == phaseActive {
			// The old generation was still good; keep serving with it.
			c.phase = phaseActive
		}
		return 0, err
	}

	// User tokens are bound to the old master token; cookies are not.
	st.Cookies = c.state.Cookies
	if len(st.Cookies) > 0 {
		if err := c.sessions.Save(st); err != nil {
			log.WithError(err).Warn("playback: persisting cookies after handshake failed")
		}
	}
	c.install(st)
	return c.generation, nil
}

// install replaces the live state, wiping the previous keys. Callers hold mu.
func (c *Client) install(st domain.SessionState) {
	memzero.Zero(c.state.Keys.EncryptionKey, c.state.Keys.SigningKey)
	c.state = st
	c.generation++
	c.phase = phaseActive
}

// invalidate drops generation gen after a crypto failure so the next call
// handshakes again. It reports whether this is a repeated failure.
func (c *Client) invalidate(gen uint64, reason error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cryptoFailures++
	if c.generation == gen && c.phase == phaseActive {
		c.phase = phaseNoSession
		log.WithFields(logrus.Fields{"generation": gen}).WithError(reason).Warn("playback: session invalidated")
	}
	return c.cryptoFailures > 1
}

// session returns a read-locked snapshot of a usable state. The caller must
// call release when the round trip is over.
//
// A generation installed by this call's own establish is used even when its
// master token is already inside the renewal window. Otherwise a server that
// issues short-lived tokens would send every request into another handshake
// forever. At most two establish attempts are made: one may lose the race to
// a concurrent invalidate, a second failure is ErrNoSession.
func (c *Client) session(ctx context.Context) (st domain.SessionState, gen uint64, release func(), err error) {
	var fresh uint64
	for attempt := 0; ; attempt++ {
		c.mu.RLock()
		if c.phase == phaseActive && (c.generation == fresh || !c.sessions.IsRenewalDue(c.state.MasterToken)) {
			return c.state, c.generation, c.mu.RUnlock, nil
		}
		seen := c.generation
		c.mu.RUnlock()

		if attempt == 2 {
			return st, 0, nil, domain.ErrNoSession
		}
		if fresh, err = c.establish(ctx, seen, false); err != nil {
			return st, 0, nil, err
		}
	}
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() { <-c.sem }

// exchange is one request/response under a fixed session snapshot.
type exchange struct {
	header framing.HeaderData
	plain  []byte
	http   http.Header
}

func (c *Client) roundTrip(ctx context.Context, endpoint, url string, body []byte) (framing.Result, error) {
	start := time.Now()
	res, err := c.doRoundTrip(ctx, endpoint, url, body)
	c.metrics.ObserveRequest(endpoint, start, err)
	return res, err
}

func (c *Client) doRoundTrip(ctx context.Context, endpoint, url string, body []byte) (framing.Result, error) {
	if err := c.acquire(ctx); err != nil {
		return framing.Result{}, err
	}
	defer c.release()
	defer c.metrics.TrackInFlight()()

	st, gen, unlock, err := c.session(ctx)
	if err != nil {
		return framing.Result{}, fmt.Errorf("%w: %w", domain.ErrSecureSession, err)
	}
	ex, err := c.send(ctx, st, endpoint, url, body)
	unlock()

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDecryption), errors.Is(err, domain.ErrIntegrity):
			if c.invalidate(gen, err) {
				return framing.Result{}, fmt.Errorf("%w: %w", domain.ErrSecureSession, err)
			}
		case errors.Is(err, domain.ErrRemoteAPI):
			c.handleRemote(gen, err)
		}
		return framing.Result{}, err
	}

	// The exchange authenticated, so its tokens are kept even when the
	// payload itself reports an error.
	c.commit(gen, ex)
	res, err := framing.UnwrapResult(ex.plain)
	if errors.Is(err, domain.ErrRemoteAPI) {
		c.handleRemote(gen, err)
	}
	return res, err
}

func (c *Client) send(ctx context.Context, st domain.SessionState, endpoint, url string, body []byte) (exchange, error) {
	var creds *domain.Credentials
	if len(st.UserIDToken) == 0 && c.creds != nil {
		cr, err := c.creds.Credentials(ctx)
		if err != nil {
			return exchange{}, fmt.Errorf("credentials: %w", err)
		}
		creds = &cr
	}

	msg, err := c.framer.BuildRequest(st, creds, body)
	if err != nil {
		return exchange{}, err
	}
	td, err := st.MasterToken.Decode()
	if err != nil {
		return exchange{}, fmt.Errorf("%w: master token: %v", domain.ErrNoSession, err)
	}
	fields := logrus.Fields{"endpoint": endpoint, "messageid": msg.MessageID, "sequence": td.SequenceNumber}
	log.WithFields(fields).Debug("playback: sending request")

	resp, err := c.transport.Post(ctx, url, msg.Body, cookieHeader(st.Cookies, c.now()))
	if err != nil {
		return exchange{}, err
	}
	if resp.Status/100 != 2 {
		if json.Valid(resp.Body) {
			return exchange{}, fmt.Errorf("http %d: %w", resp.Status, framing.RemoteError(resp.Body))
		}
		return exchange{}, fmt.Errorf("%s: http %d", endpoint, resp.Status)
	}

	parsed, err := framing.ParseChunkedResponse(resp.Body)
	if err != nil {
		return exchange{}, err
	}
	codec := envelope.New(st.Keys, envelope.KeyID(c.framer.ESN, td.SequenceNumber))
	hd, err := framing.DecryptHeader(codec, parsed.Header)
	if err != nil {
		return exchange{}, err
	}
	plain, err := framing.DecryptPayloads(codec, parsed.Payloads)
	if err != nil {
		return exchange{}, err
	}
	log.WithFields(fields).WithField("chunks", len(parsed.Payloads)).Debug("playback: response decrypted")
	return exchange{header: hd, plain: plain, http: resp.Header}, nil
}

// handleRemote reacts to server-side rejections of our tokens, whether they
// came back as errordata or inside a decrypted payload.
func (c *Client) handleRemote(gen uint64, err error) {
	var rerr *domain.RemoteAPIError
	if !errors.As(err, &rerr) {
		return
	}
	log.WithFields(logrus.Fields{"generation": gen, "code": rerr.Code}).Warn("playback: remote api error")
	code := strings.ToUpper(rerr.Code)
	switch {
	case strings.HasPrefix(code, "MASTERTOKEN_"), strings.HasPrefix(code, "ENTITY"):
		c.mu.Lock()
		if c.generation == gen && c.phase == phaseActive {
			c.phase = phaseNoSession
			log.WithField("code", rerr.Code).Warn("playback: master token rejected, will handshake")
		}
		c.mu.Unlock()
	case strings.HasPrefix(code, "USERDATA_"), strings.HasPrefix(code, "USERIDTOKEN_"):
		c.mu.Lock()
		if c.generation == gen && len(c.state.UserIDToken) > 0 {
			c.state.UserIDToken = nil
			c.persistLocked()
		}
		c.mu.Unlock()
	}
}

// commit merges tokens and cookies from a successful exchange.
func (c *Client) commit(gen uint64, ex exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cryptoFailures = 0
	if c.generation != gen {
		return
	}
	changed := mergeHeader(&c.state, ex.header)
	if mergeCookies(&c.state, ex.http, c.now()) {
		changed = true
	}
	if changed {
		c.persistLocked()
	}
}

func (c *Client) persistLocked() {
	if err := c.sessions.Save(c.state.Clone()); err != nil {
		log.WithError(err).Warn("playback: persisting session failed")
	}
}

// Manifest fetches, transcodes and renders the manifest for viewableID. A
// server that answers with XML gets its document passed through untouched.
func (c *Client) Manifest(ctx context.Context, viewableID int64) (domain.ManifestDocument, []byte, error) {
	body, err := buildManifestRequest(viewableID, c.opts.Languages, c.opts.Profiles)
	if err != nil {
		return domain.ManifestDocument{}, nil, err
	}
	res, err := c.roundTrip(ctx, EndpointManifest, c.opts.ManifestURL, body)
	if err != nil {
		return domain.ManifestDocument{}, nil, err
	}
	if res.IsXML() {
		c.saveCache(store.ManifestMPDFile, res.XML)
		return domain.ManifestDocument{}, res.XML, nil
	}

	c.saveCache(store.ManifestJSONFile, res.JSON)
	doc, err := manifest.Transcode(res.JSON)
	if err != nil {
		return domain.ManifestDocument{}, nil, err
	}
	mpd, err := manifest.RenderMPD(doc)
	if err != nil {
		return domain.ManifestDocument{}, nil, err
	}
	c.saveCache(store.ManifestMPDFile, mpd)

	c.ctxMu.Lock()
	c.licenseHref = doc.LicenseURL
	c.playbackContext = doc.PlaybackContextID
	c.drmContext = doc.DRMContextID
	c.ctxMu.Unlock()

	log.WithFields(logrus.Fields{
		"viewable": viewableID,
		"video":    len(doc.Video),
		"audio":    len(doc.Audio),
		"text":     len(doc.Text),
	}).Info("playback: manifest loaded")
	return doc, mpd, nil
}

// PlaybackContext returns the context ids of the last manifest.
func (c *Client) PlaybackContext() (playbackContextID, drmContextID string) {
	c.ctxMu.Lock()
	defer c.ctxMu.Unlock()
	return c.playbackContext, c.drmContext
}

// License exchanges a CDM challenge for a license. It needs the license
// link of a previously loaded manifest.
func (c *Client) License(ctx context.Context, challenge []byte, sessionID string) ([]byte, error) {
	c.ctxMu.Lock()
	href := c.licenseHref
	c.ctxMu.Unlock()
	if href == "" {
		return nil, ErrNoManifest
	}

	body, err := buildLicenseRequest(href, c.opts.Languages, challenge, sessionID, c.now())
	if err != nil {
		return nil, err
	}
	res, err := c.roundTrip(ctx, EndpointLicense, c.opts.LicenseURL, body)
	if err != nil {
		return nil, err
	}

	var results []licenseResult
	if err := json.Unmarshal(res.JSON, &results); err != nil || len(results) == 0 || results[0].LicenseResponseBase64 == "" {
		return nil, &domain.RemoteAPIError{Message: "response carries no license", Body: res.JSON}
	}
	license, err := crypto.UnB64(results[0].LicenseResponseBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: license encoding: %v", domain.ErrDecryption, err)
	}
	return license, nil
}

func (c *Client) saveCache(name string, data []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SaveFile(name, data); err != nil {
		log.WithError(err).WithField("file", name).Warn("playback: caching manifest failed")
	}
}

// Compile-time assertion that Client implements domain.PlaybackService.
var _ domain.PlaybackService = (*Client)(nil)
