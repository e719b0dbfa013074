package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// FileSink appends audit records as line-delimited JSON. Appends are
// serialized under a mutex and fsynced before returning, so a concurrent
// reader never sees a partial record.
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	signKey string
	logger  logger.Logger
}

// NewFileSink opens (creating if needed) the JSONL audit log at path. A
// non-empty signKey enables HMAC signing of each record.
func NewFileSink(path, signKey string, log logger.Logger) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "failed to create audit log directory")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "failed to open audit log")
	}
	return &FileSink{
		file:    file,
		signKey: signKey,
		logger:  log.WithComponent("FileAuditSink"),
	}, nil
}

// Append implements service.AuditSink.
func (s *FileSink) Append(ctx context.Context, record *models.AuditRecord) error {
	if s.signKey != "" {
		signature, err := SignRecord(record, s.signKey)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to sign audit record")
		}
		record.Signature = signature
	}

	line, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to marshal audit record")
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to append audit record")
	}
	if err := s.file.Sync(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to flush audit record")
	}

	s.logger.Debug(ctx, "audit record written",
		logger.String("username", record.Username),
		logger.String("action", string(record.Action)),
	)
	return nil
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

var _ service.AuditSink = (*FileSink)(nil)
