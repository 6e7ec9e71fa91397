package proxy

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"msl/internal/domain"
	"msl/internal/logging"
	"msl/internal/services/playback"
)

var log = logging.Log

// MaxLicenseBody bounds the challenge body read from the player.
const MaxLicenseBody = 1 << 20

// Server routes player requests to a PlaybackService.
type Server struct {
	svc     domain.PlaybackService
	metrics http.Handler
	engine  *gin.Engine
}

// New builds the router. metrics may be nil, in which case /metrics is not
// served.
func New(svc domain.PlaybackService, metrics http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{svc: svc, metrics: metrics, engine: gin.New()}
	s.engine.Use(accessLog(), gin.Recovery())

	s.engine.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	s.engine.GET("/manifest", s.handleManifest)
	s.engine.POST("/license", s.handleLicense)
	s.engine.GET("/", s.handleManifest)
	s.engine.POST("/", s.handleLicense)
	if metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(metrics))
	}
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// accessLog records method, path, remote, status, bytes and duration.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"remote":   c.ClientIP(),
			"status":   c.Writer.Status(),
			"bytes":    c.Writer.Size(),
			"duration": time.Since(start).String(),
		}).Info("proxy: request")
	}
}

func (s *Server) handleManifest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusBadRequest, "missing or invalid id")
		return
	}
	_, mpd, err := s.svc.Manifest(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "manifest", err)
		return
	}
	c.Data(http.StatusOK, "application/xml", mpd)
}

func (s *Server) handleLicense(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxLicenseBody+1))
	if err != nil {
		c.String(http.StatusBadRequest, "read body: %v", err)
		return
	}
	if len(body) > MaxLicenseBody {
		c.String(http.StatusRequestEntityTooLarge, "license request too large")
		return
	}
	challenge, sessionID, err := parseLicenseBody(string(body))
	if err != nil {
		c.String(http.StatusBadRequest, "%s", err.Error())
		return
	}
	license, err := s.svc.License(c.Request.Context(), challenge, sessionID)
	if err != nil {
		s.fail(c, "license", err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", license)
}

// parseLicenseBody splits "<b64 challenge>!<b64 session id>".
func parseLicenseBody(body string) ([]byte, string, error) {
	chal, sid, ok := strings.Cut(strings.TrimSpace(body), "!")
	if !ok || chal == "" || sid == "" {
		return nil, "", errors.New("body must be <challenge>!<session id>")
	}
	challenge, err := base64.StdEncoding.DecodeString(chal)
	if err != nil {
		return nil, "", errors.New("challenge is not base64")
	}
	rawSID, err := base64.StdEncoding.DecodeString(sid)
	if err != nil {
		return nil, "", errors.New("session id is not base64")
	}
	return challenge, string(rawSID), nil
}

func (s *Server) fail(c *gin.Context, endpoint string, err error) {
	status := statusFor(err)
	log.WithFields(logrus.Fields{"endpoint": endpoint, "status": status}).WithError(err).Warn("proxy: upstream call failed")
	c.String(status, "%s", err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, playback.ErrNoManifest):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSecureSession), errors.Is(err, domain.ErrRemoteAPI), errors.Is(err, domain.ErrMalformed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrManifestParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
