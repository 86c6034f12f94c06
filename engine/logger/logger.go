package logger

import (
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// loggerPtr stores the active logger so SetLogger may race with logging from the render goroutine.
var loggerPtr atomic.Pointer[logrus.Logger]

func init() {
	loggerPtr.Store(newDefault())
}

// newDefault builds the engine's default logger: text output to stderr at info level.
func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLogger replaces the logger shared by the engine and all its sub-packages.
// Passing nil restores the default logger.
//
// Log levels used by the engine:
//   - Debug: compiled render graph schedules, skipped passes
//   - Info: lifecycle events, profiler statistics
//   - Warn: dropped frames, ignored config reloads
//   - Error: recovered render goroutine panics
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newDefault()
	}
	loggerPtr.Store(l)
}

// Logger returns the current shared logger. Safe for concurrent use.
//
// Returns:
//   - *logrus.Logger: the active logger
func Logger() *logrus.Logger {
	return loggerPtr.Load()
}

// WithComponent returns an entry tagged with the emitting component.
//
// Parameters:
//   - name: the component name, e.g. "render_graph" or "engine"
//
// Returns:
//   - *logrus.Entry: the tagged entry
func WithComponent(name string) *logrus.Entry {
	return Logger().WithField("component", name)
}
