package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/threaddump-analysis/pkg/model"
)

// GormAnalysisRepository implements AnalysisRepository using GORM.
type GormAnalysisRepository struct {
	db *gorm.DB
}

// NewGormAnalysisRepository creates a new GormAnalysisRepository.
func NewGormAnalysisRepository(db *gorm.DB) *GormAnalysisRepository {
	return &GormAnalysisRepository{db: db}
}

// Save stores the record and its suggestions in one transaction.
func (r *GormAnalysisRepository) Save(ctx context.Context, rec *model.AnalysisRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("analysis record has no id")
	}

	row, err := NewThreadDumpAnalysis(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	suggestions := make([]*AnalysisSuggestion, 0, len(rec.Suggestions))
	for _, s := range rec.Suggestions {
		suggestions = append(suggestions, NewAnalysisSuggestion(rec.ID, s))
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if len(suggestions) == 0 {
			return nil
		}
		return tx.Create(&suggestions).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetByID retrieves a record with its summary and suggestions.
func (r *GormAnalysisRepository) GetByID(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	return r.getOne(ctx, "uuid = ?", id)
}

// GetByContentHash retrieves the newest record for a dump body.
func (r *GormAnalysisRepository) GetByContentHash(ctx context.Context, hash string) (*model.AnalysisRecord, error) {
	return r.getOne(ctx, "content_hash = ?", hash)
}

func (r *GormAnalysisRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.AnalysisRecord, error) {
	var row ThreadDumpAnalysis

	err := r.db.WithContext(ctx).Where(query, arg).Order("id DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	rec, err := row.ToModel(true)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	suggestions, err := r.suggestionsFor(ctx, row.UUID)
	if err != nil {
		return nil, err
	}
	rec.Suggestions = suggestions

	return rec, nil
}

func (r *GormAnalysisRepository) suggestionsFor(ctx context.Context, analysisUUID string) ([]model.Suggestion, error) {
	var rows []AnalysisSuggestion

	err := r.db.WithContext(ctx).
		Where("analysis_uuid = ?", analysisUUID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}

	result := make([]model.Suggestion, len(rows))
	for i := range rows {
		result[i] = rows[i].ToModel()
	}
	return result, nil
}

// ListRecent returns the newest records first. Summaries are not decoded;
// use GetByID for the full record.
func (r *GormAnalysisRepository) ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var rows []ThreadDumpAnalysis
	err := r.db.WithContext(ctx).
		Omit("summary").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	result := make([]*model.AnalysisRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToModel(false)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}
