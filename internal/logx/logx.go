package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"broll/internal/paths"
)

// Logger is the subset of log.Logger the pipeline packages depend on.
type Logger interface {
	Printf(format string, v ...any)
}

// New creates a logger that writes to a timestamped file inside the project's
// logs directory, one file per command run. The returned closer should be
// closed when logging is no longer needed.
func New(p paths.ProjectPaths, command string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	name := time.Now().Format("20060102-150405")
	if command = strings.TrimSpace(command); command != "" {
		name += "-" + command
	}
	file, err := os.OpenFile(filepath.Join(p.LogsDir, name+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	prefix := ""
	if command != "" {
		prefix = "[" + command + "] "
	}
	return log.New(file, prefix, log.LstdFlags|log.Lmicroseconds), file, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard()
	}
	return l
}
