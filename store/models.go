package store

import "time"

// QueryRecord is one row per client query served, matching the
// per-query telemetry fields the execution loop emits.
type QueryRecord struct {
	ID         uint64 `gorm:"primary_key"`
	RayID      string `gorm:"index;size:64"`
	QueryID    string `gorm:"size:64"`
	APIKey     string `gorm:"index;size:128"`
	Deployment string `gorm:"index;size:64"`
	CreatedAt  time.Time
}

// IndexerAttemptRecord is one row per indexer attempt within a query,
// matching the per-indexer telemetry fields spec.md §6 lists:
// fee, utility, blocks_behind, response_time_ms, status, status_code.
type IndexerAttemptRecord struct {
	ID              uint64 `gorm:"primary_key"`
	QueryRecordID   uint64 `gorm:"index"`
	Indexer         string `gorm:"index;size:64"`
	Fee             string `gorm:"size:64"`
	Utility         float64
	BlocksBehind    uint64
	ResponseTimeMs  uint64
	Status          string `gorm:"size:32"`
	StatusCode      int
	CreatedAt       time.Time
}

// SelectionErrorRecord is one row per disqualified indexer, matching
// the per-selection-error telemetry spec.md §6 describes:
// error_code in 1..=6 plus error_data.
type SelectionErrorRecord struct {
	ID            uint64 `gorm:"primary_key"`
	QueryRecordID uint64 `gorm:"index"`
	Indexer       string `gorm:"index;size:64"`
	ErrorCode     int
	ErrorData     string `gorm:"size:256"`
	CreatedAt     time.Time
}
