// Package gplog provides the five-severity logging surface the core uses
// (debug, verbose, notice, warning, error — see spec §6.3). It wraps
// logrus, the logging library the rest of the toolchain depends on, rather
// than introducing a second logging dependency.
//
// verbose and notice are not native logrus levels: verbose maps onto
// logrus.DebugLevel and notice onto logrus.InfoLevel. Dedicated helper
// functions keep call sites readable against the spec's vocabulary while
// the underlying level set stays standard logrus.
package gplog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the package-wide logger instance. The log destination is
// injected by the caller (CLI, test harness, …); the core never opens its
// own log file.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging threshold from one of the spec's severity
// names, plus the native logrus names for convenience.
func SetLevel(level string) error {
	switch level {
	case "verbose":
		level = "debug"
	case "notice":
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput sets the log output destination.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches the formatter to structured JSON lines.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger entry carrying one structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns a logger entry carrying multiple structured fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithStage returns a logger entry tagged with the current pipeline stage
// (build_graphs, apply_loc, initial_place, anneal, commit, drc, emit).
func WithStage(stage string) *logrus.Entry {
	return Logger.WithField("stage", stage)
}

// Debugf logs at debug severity.
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

// Verbosef logs at the spec's "verbose" severity (logrus debug level).
func Verbosef(format string, args ...interface{}) { Logger.Debugf(format, args...) }

// Noticef logs at the spec's "notice" severity (logrus info level). DRC
// fixups that mutate device configuration (§4.6) must log at this level.
func Noticef(format string, args ...interface{}) { Logger.Infof(format, args...) }

// Warnf logs at warning severity.
func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

// Errorf logs at error severity.
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
