package repository

import (
	"errors"
	"time"

	"leafscan/internal/models"
)

// ErrPersistence wraps any storage failure. Appends are all-or-nothing:
// when this error is returned no partial row is visible to readers.
var ErrPersistence = errors.New("persistence failure")

// ScanRepository is the durable, append-only scan history. Implementations
// must serialize writes and never expose a partially written row to a
// concurrent reader.
type ScanRepository interface {
	// Append assigns a monotonically increasing id, persists the row and
	// returns the materialized record.
	Append(preds []models.Prediction, imageRef, crop string, capturedAt time.Time) (*models.ScanRecord, error)

	// GetRecent returns up to limit records, newest first.
	GetRecent(limit int) ([]models.ScanRecord, error)

	// GetByID returns one record, or nil when no row exists.
	GetByID(id int64) (*models.ScanRecord, error)

	// GetByCrop returns all records for a crop, newest first.
	GetByCrop(crop string) ([]models.ScanRecord, error)

	// Search matches a case-insensitive substring against the disease name
	// or crop of each record, newest first.
	Search(query string) ([]models.ScanRecord, error)

	// Delete removes one record; true if a row existed.
	Delete(id int64) (bool, error)

	// ClearAll wipes the history and returns the number of rows removed.
	ClearAll() (int64, error)

	// ComputeStatistics derives aggregate counts from the full record set.
	ComputeStatistics() (*models.ScanStats, error)

	// Count returns the number of stored records.
	Count() (int, error)
}
