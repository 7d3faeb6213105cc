// Package monitoring holds the process-wide diagnostic logger and the
// Prometheus collectors for the clustering pipeline.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var debugEnabled atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug toggles Debugf output.
func SetDebug(enabled bool) { debugEnabled.Store(enabled) }

// DebugEnabled reports whether Debugf output is on.
func DebugEnabled() bool { return debugEnabled.Load() }

// Debugf logs through Logf with a "[debug] " prefix when debug output is on.
// Per-frame diagnostics go here so the hot path stays quiet by default.
func Debugf(format string, v ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	Logf("[debug] "+format, v...)
}
