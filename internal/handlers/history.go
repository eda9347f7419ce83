package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"leafscan/internal/logger"
	"leafscan/internal/models"
	"leafscan/internal/repository"
	"leafscan/internal/services/photostore"
)

// defaultRecentLimit bounds an unqualified history listing.
const defaultRecentLimit = 50

// HistoryData is the response payload for scan-history listings.
type HistoryData struct {
	Scans  []models.ScanRecord `json:"scans"`
	Length int                 `json:"length"`
}

// GetScansHandler lists the scan history, newest first. With ?crop= it
// narrows to a single crop; ?limit= bounds the result.
func GetScansHandler(store repository.ScanRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			scans []models.ScanRecord
			err   error
		)
		if crop := q.Get("crop"); crop != "" {
			scans, err = store.GetByCrop(crop)
		} else {
			scans, err = store.GetRecent(atoiDefault(q.Get("limit"), defaultRecentLimit))
		}
		if err != nil {
			logger.Error("Error querying scans: %v", err)
			http.Error(w, "Unable to read scan history", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, HistoryData{Scans: emptyIfNil(scans), Length: len(scans)})
	}
}

// SearchScansHandler matches ?q= as a case-insensitive substring on
// disease name or crop.
func SearchScansHandler(store repository.ScanRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "Query parameter 'q' is required", http.StatusBadRequest)
			return
		}

		scans, err := store.Search(query)
		if err != nil {
			logger.Error("Error searching scans: %v", err)
			http.Error(w, "Unable to search scan history", http.StatusInternalServerError)
			return
		}

		writeJSON(w, logger, HistoryData{Scans: emptyIfNil(scans), Length: len(scans)})
	}
}

// GetStatsHandler returns aggregate statistics over the whole history.
func GetStatsHandler(store repository.ScanRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.ComputeStatistics()
		if err != nil {
			logger.Error("Error computing statistics: %v", err)
			http.Error(w, "Unable to compute statistics", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, stats)
	}
}

// DeleteScanHandler removes one record by ?id= and its stored photo.
func DeleteScanHandler(store repository.ScanRepository, photos *photostore.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid scan id", http.StatusBadRequest)
			return
		}

		// Look the record up first so its photo can be removed too.
		var imageRef string
		if rec, err := store.GetByID(id); err == nil && rec != nil {
			imageRef = rec.ImageRef
		}

		removed, err := store.Delete(id)
		if err != nil {
			logger.Error("Error deleting scan %d: %v", id, err)
			http.Error(w, "Unable to delete scan", http.StatusInternalServerError)
			return
		}
		if !removed {
			http.Error(w, "Scan not found", http.StatusNotFound)
			return
		}

		if imageRef != "" {
			if err := photos.Delete(imageRef); err != nil {
				logger.Warning("Scan %d deleted but photo %s was not: %v", id, imageRef, err)
			}
		}

		logger.Info("Scan %d deleted", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearScansHandler wipes the whole history and the photo directory.
func ClearScansHandler(store repository.ScanRepository, photos *photostore.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		removed, err := store.ClearAll()
		if err != nil {
			logger.Error("Error clearing scans: %v", err)
			http.Error(w, "Unable to clear scan history", http.StatusInternalServerError)
			return
		}

		if _, err := photos.Clear(); err != nil {
			logger.Warning("History cleared but photos were not: %v", err)
		}

		logger.Info("Scan history cleared: %d records removed", removed)
		writeJSON(w, logger, map[string]int64{"removed": removed})
	}
}

// ViewPhotoHandler serves one stored leaf photo by its reference.
func ViewPhotoHandler(photos *photostore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Query().Get("image")
		if ref == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}
		path, err := photos.Path(ref)
		if err != nil {
			http.Error(w, "Invalid image reference", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, path)
	}
}

// helpers

func writeJSON(w http.ResponseWriter, logger *logger.Logger, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func emptyIfNil(scans []models.ScanRecord) []models.ScanRecord {
	if scans == nil {
		return []models.ScanRecord{}
	}
	return scans
}
