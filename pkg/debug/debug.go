// Package debug is hv's diagnostic log. It is silent unless HV_DEBUG is
// set, in which case lines go to stderr with a [HV_DEBUG] prefix:
//
//	HV_DEBUG=1 hv --data ./data --query lamp --text
package debug

import (
	"io"
	"log"
	"os"
)

var (
	enabled = os.Getenv("HV_DEBUG") != ""
	logger  = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "[HV_DEBUG] ", log.Ltime|log.Lmicroseconds)
}

// SetEnabled turns the log on or off.
func SetEnabled(on bool) {
	enabled = on
}

// SetOutput redirects the log, mostly for tests.
func SetOutput(w io.Writer) {
	logger = newLogger(w)
}

// Log writes a line when the log is on.
func Log(format string, args ...any) {
	if enabled {
		logger.Printf(format, args...)
	}
}

// LogIf writes a line when the log is on and cond holds.
func LogIf(cond bool, format string, args ...any) {
	if enabled && cond {
		logger.Printf(format, args...)
	}
}
