// Package diag is the line-oriented diagnostic sink for the HAL.  It is
// purely observational: device installation notices, pin-range summaries
// and error notices are written here and never read back.
package diag

import (
	"fmt"
	"io"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Logger writes one diagnostic line per call.  The zero value discards.
type Logger struct {
	w io.Writer
}

// New returns a Logger emitting to w.  A nil w discards output.
func New(w io.Writer) *Logger {
	if w == nil {
		w = discard{}
	}
	return &Logger{w: w}
}

// Logf writes a single formatted diagnostic line.
func (l *Logger) Logf(format string, args ...any) {
	if l == nil || l.w == nil {
		return
	}
	fmt.Fprintf(l.w, format, args...)
	io.WriteString(l.w, "\n")
}
