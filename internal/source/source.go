package source

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/gcs"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/pipeline"
)

// Fetcher downloads an export from object storage. *gcs.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

var _ Fetcher = (*gcs.Client)(nil)

// FileSource reads a JSON export from the local filesystem.
type FileSource struct {
	Path string
}

var _ pipeline.MessageSource = (*FileSource)(nil)

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// List reads and decodes the export, then applies filter. The file is read
// again on every call.
func (s *FileSource) List(ctx context.Context, filter pipeline.Filter) ([]domain.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("FileSource.List: read %s: %w", s.Path, err)
	}
	return selectMessages(ctx, data, filter)
}

// GCSSource reads a JSON export stored at a gs:// URI.
type GCSSource struct {
	fetcher Fetcher
	uri     string
}

var _ pipeline.MessageSource = (*GCSSource)(nil)

// NewGCSSource creates a GCSSource reading uri through fetcher.
func NewGCSSource(fetcher Fetcher, uri string) *GCSSource {
	return &GCSSource{fetcher: fetcher, uri: uri}
}

// List downloads and decodes the export, then applies filter.
func (s *GCSSource) List(ctx context.Context, filter pipeline.Filter) ([]domain.RawMessage, error) {
	data, err := s.fetcher.Fetch(ctx, s.uri)
	if err != nil {
		return nil, fmt.Errorf("GCSSource.List: %w", err)
	}
	return selectMessages(ctx, data, filter)
}

// selectMessages decodes an export and keeps the records passing filter,
// oldest first.
func selectMessages(ctx context.Context, data []byte, filter pipeline.Filter) ([]domain.RawMessage, error) {
	records, skipped, err := DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log := logger.FromContext(ctx)
		log.Debug().Int("skipped", skipped).Msg("skipped malformed export records")
	}

	msgs := make([]domain.RawMessage, 0, len(records))
	for _, r := range records {
		if filter.Contains(r.Box, r.Timestamp) {
			msgs = append(msgs, r.RawMessage)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}

// StaticGate is a PermissionGate with a fixed answer, taken from config.
type StaticGate struct {
	Granted bool
}

var _ pipeline.PermissionGate = StaticGate{}

// RequestReadAccess returns the configured answer.
func (g StaticGate) RequestReadAccess(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return g.Granted, nil
}
