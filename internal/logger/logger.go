package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// New returns a text logger writing to w.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Init installs a stdout logger as the slog default and returns it tagged
// with a fresh run id.
func Init(debug bool) *slog.Logger {
	l := New(os.Stdout, debug)
	slog.SetDefault(l)
	return WithRun(l)
}

// WithRun tags every record of l with a new run_id.
func WithRun(l *slog.Logger) *slog.Logger {
	return l.With("run_id", uuid.NewString())
}
