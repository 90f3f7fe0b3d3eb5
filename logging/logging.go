// Package logging wraps github.com/tliron/commonlog behind the
// four-level, format-string logger contract spec.md §6 specifies,
// grounded on server/lsp.go's use of commonlog — a commonlog.Logger
// obtained via commonlog.GetLogger, with the simple backend registered by
// a blank import in the binary that wants console output.
package logging

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"
)

// Logger is the interface handler.Logger and transform.Logger are
// structurally compatible with — four levels, printf-style formatting,
// and an error-carrying variant of Warn/Error for wrapping a cause.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})
	WarnErr(err error, format string, args ...interface{})
	ErrorErr(err error, format string, args ...interface{})
}

// commonLogger backs Logger with commonlog.GetLogger(name). Message
// formatting happens on this side of the boundary (fmt.Sprintf) rather
// than being handed to commonlog's own templated-message API, so callers
// can use ordinary printf verbs without caring which commonlog backend is
// registered.
type commonLogger struct {
	inner commonlog.Logger
}

// New wraps a named commonlog logger. name is typically the package or
// component emitting the message, e.g. "classforge/transform".
func New(name string) Logger {
	return &commonLogger{inner: commonlog.GetLogger(name)}
}

// Configure sets commonlog's global verbosity. It registers no
// destination; console output comes from the blank import of
// commonlog/simple a binary performs before its first GetLogger call.
func Configure(level string) {
	commonlog.SetMaxLevel(levelFor(level))
}

func levelFor(level string) commonlog.Level {
	switch level {
	case "debug":
		return commonlog.Debug
	case "info":
		return commonlog.Info
	case "warn", "warning":
		return commonlog.Warning
	case "error":
		return commonlog.Error
	case "critical", "fatal":
		return commonlog.Critical
	default:
		return commonlog.Info
	}
}

func (l *commonLogger) Info(format string, args ...interface{}) {
	l.inner.Info(fmt.Sprintf(format, args...))
}

func (l *commonLogger) Warn(format string, args ...interface{}) {
	l.inner.Warning(fmt.Sprintf(format, args...))
}

func (l *commonLogger) Error(format string, args ...interface{}) {
	l.inner.Error(fmt.Sprintf(format, args...))
}

func (l *commonLogger) Fatal(format string, args ...interface{}) {
	l.inner.Critical(fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *commonLogger) WarnErr(err error, format string, args ...interface{}) {
	l.inner.Warning(fmt.Sprintf(format, args...) + ": " + err.Error())
}

func (l *commonLogger) ErrorErr(err error, format string, args ...interface{}) {
	l.inner.Error(fmt.Sprintf(format, args...) + ": " + err.Error())
}
