// Package monitoring provides the logging capability shared by the viewer core.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic sink. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package sink. Passing nil will set a no-op sink.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Logger is the two-severity logging capability threaded through the
// registry and the render session. Implementations must never panic.
type Logger interface {
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// Prefixes written in front of every message by StdLogger.
const (
	ErrorPrefix   = "[VISUALIZER][ERROR]"
	WarningPrefix = "[VISUALIZER][WARNING]"
)

// StdLogger writes through the package-level Logf sink.
type StdLogger struct{}

// Errorf logs an invariant violation.
func (StdLogger) Errorf(format string, v ...interface{}) {
	Logf("%s%s", ErrorPrefix, fmt.Sprintf(format, v...))
}

// Warnf logs a recoverable oddity.
func (StdLogger) Warnf(format string, v ...interface{}) {
	Logf("%s%s", WarningPrefix, fmt.Sprintf(format, v...))
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Errorf(string, ...interface{}) {}
func (NopLogger) Warnf(string, ...interface{})  {}

// OrDefault returns l, or StdLogger when l is nil.
func OrDefault(l Logger) Logger {
	if l == nil {
		return StdLogger{}
	}
	return l
}
