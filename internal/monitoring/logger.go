// Package monitoring carries the diagnostic logger and the Prometheus
// metrics of the ciefunctions service.
package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the solver and the
// server. It defaults to log.Printf; tests usually mute it with
// SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
