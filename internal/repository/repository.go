// Package repository persists thread dump analyses and their suggestions.
package repository

import (
	"context"
	"errors"

	"github.com/threaddump-analysis/pkg/model"
)

// ErrNotFound is returned when no analysis matches the lookup.
var ErrNotFound = errors.New("analysis not found")

// DefaultListLimit caps ListRecent when the caller passes limit <= 0.
const DefaultListLimit = 20

// AnalysisRepository defines the storage operations for analysis records.
type AnalysisRepository interface {
	// Save stores the record and its suggestions in one transaction.
	Save(ctx context.Context, rec *model.AnalysisRecord) error

	// GetByID retrieves a record by its id.
	GetByID(ctx context.Context, id string) (*model.AnalysisRecord, error)

	// GetByContentHash retrieves the most recent record for a dump body.
	GetByContentHash(ctx context.Context, hash string) (*model.AnalysisRecord, error)

	// ListRecent returns the newest records first, without thread details.
	ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error)
}
