// Package iocache is for caching I/O calls: baseline files, per-unit warning
// snapshots and the run history database.
package iocache

import (
	"sync"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
)

// StoreManager manages the unit cache and history store instances.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	units        contract.UnitCache
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetUnitCache returns the per-unit snapshot cache.
func (mgr *StoreManager) GetUnitCache() contract.UnitCache {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.units
}

// GetHistoryStore returns the run history store.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
