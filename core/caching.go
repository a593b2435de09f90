package core

import (
	"strings"
	"time"

	"github.com/j-roskopf/KotlinWarningBaselineGenerator/internal/contract"
	"github.com/j-roskopf/KotlinWarningBaselineGenerator/schema"
	"github.com/vmihailenco/msgpack/v5"
)

// currentCacheVersion defines the version of the unit snapshot encoding
const currentCacheVersion = 1

// snapshotMaxAge bounds how long a unit snapshot may be replayed.
const snapshotMaxAge = 30 * 24 * time.Hour

// snapshotKey identifies the cached warnings of one unit: project|variant|target|unit.
func snapshotKey(spec schema.ProjectSpec, unit string) string {
	return strings.Join([]string{spec.Name, spec.Variant, spec.Target, unit}, "|")
}

// loadSnapshot returns the cached warnings of a unit, or false on a miss.
func loadSnapshot(cache contract.UnitCache, key string) (*schema.UnitSnapshot, bool) {
	if cache == nil {
		return nil, false
	}
	data, version, ts, err := cache.Get(key)
	if err != nil {
		return nil, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > snapshotMaxAge {
		return nil, false
	}
	var snap schema.UnitSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	return &snap, true
}

// storeSnapshot encodes and stores the warnings a unit produced.
func storeSnapshot(cache contract.UnitCache, key string, snap schema.UnitSnapshot) error {
	if cache == nil {
		return nil
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return err
	}
	return cache.Set(key, data, currentCacheVersion, time.Now().Unix())
}
