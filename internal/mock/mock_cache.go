package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of the Cache interface.
type MockCache struct {
	mock.Mock
}

// Get mocks the Get method.
func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

// Set mocks the Set method.
func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ExpectGet sets up an expectation for Get returning err.
func (m *MockCache) ExpectGet(key string, err error) *mock.Call {
	return m.On("Get", mock.Anything, key, mock.Anything).Return(err)
}

// ExpectSet sets up an expectation for Set.
func (m *MockCache) ExpectSet(key string, err error) *mock.Call {
	return m.On("Set", mock.Anything, key, mock.Anything).Return(err)
}
