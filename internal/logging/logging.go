// Package logging holds the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is shared by every package; take it with `var log = logging.Log`.
var Log = logrus.New()

// Setup routes output to stderr and applies level ("debug", "info", ...).
// An unknown level falls back to info.
func Setup(level string) {
	Log.Out = os.Stderr
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// Debug will switch the verbosity of every component.
func Debug(t bool) {
	if t {
		Log.Level = logrus.DebugLevel
	} else {
		Log.Level = logrus.WarnLevel
	}
}

// Silence discards all output; tests use it to keep logs quiet.
func Silence() { Log.Out = io.Discard }
