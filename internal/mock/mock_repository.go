package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/threaddump-analysis/pkg/model"
)

// MockAnalysisRepository is a mock implementation of the AnalysisRepository interface.
type MockAnalysisRepository struct {
	mock.Mock
}

// Save mocks the Save method.
func (m *MockAnalysisRepository) Save(ctx context.Context, rec *model.AnalysisRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// GetByID mocks the GetByID method.
func (m *MockAnalysisRepository) GetByID(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

// GetByContentHash mocks the GetByContentHash method.
func (m *MockAnalysisRepository) GetByContentHash(ctx context.Context, hash string) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

// ListRecent mocks the ListRecent method.
func (m *MockAnalysisRepository) ListRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AnalysisRecord), args.Error(1)
}

// ExpectSave sets up an expectation for Save with any record.
func (m *MockAnalysisRepository) ExpectSave(err error) *mock.Call {
	return m.On("Save", mock.Anything, mock.AnythingOfType("*model.AnalysisRecord")).Return(err)
}

// ExpectGetByID sets up an expectation for GetByID.
func (m *MockAnalysisRepository) ExpectGetByID(id string, rec *model.AnalysisRecord, err error) *mock.Call {
	return m.On("GetByID", mock.Anything, id).Return(rec, err)
}

// ExpectGetByContentHash sets up an expectation for GetByContentHash.
func (m *MockAnalysisRepository) ExpectGetByContentHash(hash string, rec *model.AnalysisRecord, err error) *mock.Call {
	return m.On("GetByContentHash", mock.Anything, hash).Return(rec, err)
}

// ExpectListRecent sets up an expectation for ListRecent.
func (m *MockAnalysisRepository) ExpectListRecent(limit int, recs []*model.AnalysisRecord, err error) *mock.Call {
	return m.On("ListRecent", mock.Anything, limit).Return(recs, err)
}
