// package shared holds the gateway's cross-cutting pieces: logging,
// configuration, database access, migrations, and the error taxonomy.
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates the gateway logger writing to w, with timestamps and
// caller reporting enabled. A nil writer defaults to [os.Stderr].
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "tunex",
		ReportTimestamp: true,
		ReportCaller:    true,
	})
}

// WithLogger returns a child [log.Logger] carrying the given key-value
// pairs on every entry. Each subsystem tags itself with a "component" pair
// so one request can be traced across server, stream, and extractor lines.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the minimum [log.Level] emitted by the logger.
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID returns a random v4 UUID string. Playlist ids come from here;
// API keys do not (they are crypto/rand tokens, see the keys package).
func GenerateID() string {
	return uuid.New().String()
}
