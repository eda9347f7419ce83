package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"leafscan/internal/models"
	"leafscan/internal/repository"
)

// statsTopLabels bounds the per-label breakdown in aggregate statistics.
const statsTopLabels = 5

// ScanRepository implements repository.ScanRepository for SQLite.
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new SQLite scan repository.
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Append persists one scan row and returns the materialized record with
// its assigned id. All-or-nothing: on error no row is visible.
func (r *ScanRepository) Append(preds []models.Prediction, imageRef, crop string, capturedAt time.Time) (*models.ScanRecord, error) {
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: record must carry at least one prediction", repository.ErrPersistence)
	}

	encoded, err := encodePredictions(preds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrPersistence, err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO scans (crop, captured_at, image_ref, predictions)
		VALUES (?, ?, ?, ?)
	`, crop, capturedAt.UTC().Format(time.RFC3339), imageRef, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert scan: %v", repository.ErrPersistence, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read scan id: %v", repository.ErrPersistence, err)
	}

	record := &models.ScanRecord{
		ID:             id,
		Crop:           crop,
		TopPredictions: preds,
		ImageRef:       imageRef,
		CapturedAt:     capturedAt.UTC().Truncate(time.Second),
	}
	return record, nil
}

// GetRecent retrieves up to limit scans, newest first.
func (r *ScanRepository) GetRecent(limit int) ([]models.ScanRecord, error) {
	query := `
		SELECT id, crop, captured_at, image_ref, predictions
		FROM scans ORDER BY captured_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryRecords(query, args...)
}

// GetByID retrieves one scan, or nil when no row exists.
func (r *ScanRepository) GetByID(id int64) (*models.ScanRecord, error) {
	records, err := r.queryRecords(`
		SELECT id, crop, captured_at, image_ref, predictions
		FROM scans WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// GetByCrop retrieves all scans for a crop, newest first.
func (r *ScanRepository) GetByCrop(crop string) ([]models.ScanRecord, error) {
	return r.queryRecords(`
		SELECT id, crop, captured_at, image_ref, predictions
		FROM scans WHERE crop = ? ORDER BY captured_at DESC, id DESC
	`, crop)
}

// Search matches a case-insensitive substring against each record's crop
// or top-1 disease name. Filtering happens after decode because the
// disease name lives inside the encoded prediction list; the history is
// user-scale, so a full scan is fine.
func (r *ScanRepository) Search(query string) ([]models.ScanRecord, error) {
	records, err := r.queryRecords(`
		SELECT id, crop, captured_at, image_ref, predictions
		FROM scans ORDER BY captured_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]models.ScanRecord, 0, len(records))
	for _, rec := range records {
		disease := ""
		if len(rec.TopPredictions) > 0 {
			disease = rec.TopPredictions[0].DiseaseName()
		}
		if strings.Contains(strings.ToLower(rec.Crop), needle) ||
			strings.Contains(strings.ToLower(disease), needle) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// Delete removes one scan; true if a row existed.
func (r *ScanRepository) Delete(id int64) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to delete scan: %v", repository.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", repository.ErrPersistence, err)
	}
	return affected > 0, nil
}

// ClearAll removes the entire scan history.
func (r *ScanRepository) ClearAll() (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM scans`)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to clear scans: %v", repository.ErrPersistence, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", repository.ErrPersistence, err)
	}
	return affected, nil
}

// Count returns the number of stored scans.
func (r *ScanRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count scans: %v", repository.ErrPersistence, err)
	}
	return count, nil
}

// ComputeStatistics derives aggregate counts by scanning the full record
// set. The dataset is user-scale (hundreds to low thousands of rows).
func (r *ScanRepository) ComputeStatistics() (*models.ScanStats, error) {
	records, err := r.queryRecords(`
		SELECT id, crop, captured_at, image_ref, predictions
		FROM scans
	`)
	if err != nil {
		return nil, err
	}

	stats := &models.ScanStats{
		ByCrop:  make(map[string]int),
		ByLabel: make(map[string]int),
	}

	labelCounts := make(map[string]int)
	for _, rec := range records {
		stats.Total++
		stats.ByCrop[rec.Crop]++

		top := rec.TopPredictions[0]
		labelCounts[top.Label]++
		if top.IsHealthy() {
			stats.Healthy++
		} else {
			stats.Diseased++
		}
	}

	// Keep only the most frequent top-1 labels.
	type labelCount struct {
		label string
		count int
	}
	counts := make([]labelCount, 0, len(labelCounts))
	for label, count := range labelCounts {
		counts = append(counts, labelCount{label, count})
	}
	sort.Slice(counts, func(a, b int) bool {
		if counts[a].count != counts[b].count {
			return counts[a].count > counts[b].count
		}
		return counts[a].label < counts[b].label
	})
	for i, lc := range counts {
		if i >= statsTopLabels {
			break
		}
		stats.ByLabel[lc.label] = lc.count
	}

	return stats, nil
}

// queryRecords runs a SELECT over the scans table and decodes each row.
func (r *ScanRepository) queryRecords(query string, args ...interface{}) ([]models.ScanRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query scans: %v", repository.ErrPersistence, err)
	}
	defer rows.Close()

	var records []models.ScanRecord
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrPersistence, err)
	}
	return records, nil
}

// scanRow decodes one scans row, including the prediction list.
func scanRow(rows *sql.Rows) (*models.ScanRecord, error) {
	var rec models.ScanRecord
	var capturedAt, encoded string
	if err := rows.Scan(&rec.ID, &rec.Crop, &capturedAt, &rec.ImageRef, &encoded); err != nil {
		return nil, fmt.Errorf("%w: failed to scan row: %v", repository.ErrPersistence, err)
	}

	ts, err := time.Parse(time.RFC3339, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt timestamp %q: %v", repository.ErrPersistence, capturedAt, err)
	}
	rec.CapturedAt = ts

	preds, err := decodePredictions(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt prediction list in scan %d: %v", repository.ErrPersistence, rec.ID, err)
	}
	rec.TopPredictions = preds

	return &rec, nil
}
