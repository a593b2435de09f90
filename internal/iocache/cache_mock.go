package iocache

import (
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetUnitCache implements the StoreManager interface.
func (m *MockStoreManager) GetUnitCache() contract.UnitCache {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.UnitCache)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockUnitCache is a mock implementation of UnitCache for testing.
type MockUnitCache struct {
	mock.Mock
}

var _ contract.UnitCache = &MockUnitCache{} // Compile-time check

// Get implements the UnitCache interface.
func (m *MockUnitCache) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the UnitCache interface.
func (m *MockUnitCache) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the UnitCache interface.
func (m *MockUnitCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the UnitCache interface.
func (m *MockUnitCache) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(startTime time.Time, project schema.ProjectSpec, mode schema.BuildMode, invocationID string, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, project, mode, invocationID, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, summary schema.HistoryRunSummary) error {
	args := m.Called(runID, endTime, summary)
	return args.Error(0)
}

// RecordWarnings implements the HistoryStore interface.
func (m *MockHistoryStore) RecordWarnings(runID int64, warnings []string, isNew map[string]struct{}) error {
	args := m.Called(runID, warnings, isNew)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.HistoryRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.HistoryRunRecord)
	return runs, args.Error(1)
}

// GetAllRunWarnings implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRunWarnings() ([]schema.HistoryWarningRecord, error) {
	args := m.Called()
	warnings, _ := args.Get(0).([]schema.HistoryWarningRecord)
	return warnings, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
