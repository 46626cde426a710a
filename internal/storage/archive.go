package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/utils"
	"github.com/threaddump-analysis/pkg/writer"
)

// Archiver uploads analysis artifacts under stable keys.
type Archiver struct {
	store  Storage
	logger utils.Logger
}

// NewArchiver creates an Archiver over store.
func NewArchiver(store Storage, logger utils.Logger) *Archiver {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Archiver{store: store, logger: logger}
}

// ArchiveDump uploads the raw dump and returns its key.
func (a *Archiver) ArchiveDump(ctx context.Context, id, fileName string, content []byte) (string, error) {
	key := DumpKey(id, fileName)
	if err := a.store.Upload(ctx, key, bytes.NewReader(content)); err != nil {
		return "", err
	}
	a.logger.Debug("Archived dump %s (%d bytes)", key, len(content))
	return key, nil
}

// ArchiveSummary uploads summary as pretty JSON and returns its key.
func (a *Archiver) ArchiveSummary(ctx context.Context, id string, summary *model.Summary) (string, error) {
	data, err := writer.NewPrettyJSONWriter[*model.Summary]().Bytes(summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	key := SummaryKey(id)
	if err := a.store.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return "", err
	}
	a.logger.Debug("Archived summary %s", key)
	return key, nil
}

// ArchiveOutputs uploads analyzer output files. The returned copies carry
// the key each file was stored under.
func (a *Archiver) ArchiveOutputs(ctx context.Context, id string, files []model.OutputFile) ([]model.OutputFile, error) {
	result := make([]model.OutputFile, 0, len(files))
	for _, f := range files {
		key := OutputKey(id, filepath.Base(f.LocalPath))
		if f.COSKey != "" {
			key = path.Join(AnalysisPrefix, f.COSKey)
		}

		if err := a.store.UploadFile(ctx, key, f.LocalPath); err != nil {
			return result, err
		}
		a.logger.Debug("Archived %s to %s", f.LocalPath, key)

		f.COSKey = key
		result = append(result, f)
	}
	return result, nil
}
