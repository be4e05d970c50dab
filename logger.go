package symdex

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with symdex-specific helpers. Routine pipeline
// events log at Debug/Info; failures that drop data log at Warn or Error.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler means
// discard all output.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger writing human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewJSONLogger creates a Logger writing JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all output. The default.
func NoopLogger() *Logger {
	return NewLogger(nil)
}

// LogRun logs the outcome of a pipeline run.
func (l *Logger) LogRun(root string, registered int, err error) {
	if err != nil {
		l.Error("pipeline run failed", "root", root, "error", err)
		return
	}
	l.Info("pipeline run complete", "root", root, "registered", registered)
}

// LogResolverSync logs the outcome of the best-effort resolver sync.
func (l *Logger) LogResolverSync(synced int, err error) {
	if err != nil {
		l.Warn("resolver sync failed, continuing with local data", "error", err)
		return
	}
	l.Debug("resolver sync complete", "synced", synced)
}

// LogSnapshot logs a snapshot write.
func (l *Logger) LogSnapshot(path string, symbols int, err error) {
	if err != nil {
		l.Error("snapshot write failed", "path", path, "error", err)
		return
	}
	l.Info("snapshot written", "path", path, "symbols", symbols)
}
