package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/discernus/discernus-core/internal/logutil"
)

// FileAuditLogger appends one JSON line per AuditEntry to a file. It is
// safe for concurrent use; writes are serialized by mu so that two
// goroutines logging at once never interleave partial lines.
type FileAuditLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger logutil.LoggerInterface
}

// NewFileAuditLogger opens (creating if necessary) the file at path in
// append mode and returns a logger writing JSONL entries to it.
func NewFileAuditLogger(path string, logger logutil.LoggerInterface) (*FileAuditLogger, error) {
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[auditlog] ")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("failed to open audit log file %s: %v", path, err)
		return nil, fmt.Errorf("auditlog: open %s: %w", path, err)
	}

	logger.Info("opened audit log file %s", path)

	return &FileAuditLogger{
		file:   f,
		logger: logger,
	}, nil
}

// Log serializes entry as one JSON line and appends it to the file.
func (l *FileAuditLogger) Log(ctx context.Context, entry AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("Failed to marshal audit entry to JSON: %v, Entry: %+v", err, entry)
		return fmt.Errorf("auditlog: marshal entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		l.logger.ErrorContext(ctx, "failed to write audit entry: %v", err)
		return fmt.Errorf("auditlog: write entry: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Idempotent: a second call
// returns nil rather than an already-closed error.
func (l *FileAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("auditlog: close: %w", err)
	}
	return nil
}
