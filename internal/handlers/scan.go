package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"leafscan/internal/config"
	"leafscan/internal/imaging"
	"leafscan/internal/logger"
	"leafscan/internal/models"
	"leafscan/internal/services"
	"leafscan/internal/services/photostore"
)

// ScanResponse is the payload for a completed classification.
type ScanResponse struct {
	Scan    *models.ScanRecord     `json:"scan"`
	Quality *imaging.QualityReport `json:"quality,omitempty"`
}

// ErrorResponse tells the caller what failed and what to do about it:
// retake the photo, retry later, or treat the history as unrecoverable.
type ErrorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Category string `json:"category,omitempty"`
}

// HealthHandler reports service liveness.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// ClassifyHandler accepts a leaf photo as multipart form field "image",
// stores it, runs the classification pipeline and returns the persisted
// scan record. The quality report rides along as a warning; it never
// blocks the result.
func ClassifyHandler(pipeline *services.Pipeline, photos *photostore.Store, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseMultipartForm(cfg.MaxUploadSizeMB << 20); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
			return
		}
		defer file.Close()

		raw, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read image", http.StatusBadRequest)
			return
		}

		ref, err := photos.Save(raw, header.Filename)
		if err != nil {
			logger.Error("Failed to store uploaded photo: %v", err)
			http.Error(w, "Failed to store photo", http.StatusInternalServerError)
			return
		}

		record, quality, err := pipeline.Classify(r.Context(), raw, ref)
		if err != nil {
			// The photo belongs to no record; do not keep it around.
			if cleanupErr := photos.Delete(ref); cleanupErr != nil {
				logger.Warning("Failed to clean up photo %s: %v", ref, cleanupErr)
			}
			writePipelineError(w, logger, err)
			return
		}

		resp := ScanResponse{Scan: record}
		if quality.Flagged() {
			resp.Quality = quality
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("Error encoding scan response: %v", err)
		}
	}
}

// writePipelineError maps the failure taxonomy onto HTTP statuses:
// retake -> 400, retry -> 503, fatal -> 500.
func writePipelineError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: "Classification failed"}

	var perr *services.PipelineError
	if errors.As(err, &perr) {
		resp.Kind = string(perr.Kind)
		resp.Category = string(perr.Kind.Category())
		resp.Error = perr.Error()
		switch perr.Kind.Category() {
		case services.CategoryRetake:
			status = http.StatusBadRequest
		case services.CategoryRetry:
			status = http.StatusServiceUnavailable
		}
	}

	logger.Warning("Classify request failed: %v", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
