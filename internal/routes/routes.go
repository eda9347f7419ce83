package routes

import (
	"net/http"

	"leafscan/internal/config"
	"leafscan/internal/handlers"
	"leafscan/internal/logger"
	"leafscan/internal/middleware"
	"leafscan/internal/repository"
	"leafscan/internal/services"
	"leafscan/internal/services/photostore"
	ws "leafscan/internal/services/websocket"
)

// SetupRoutes registers the API endpoints and wraps the mux with the
// authentication middleware.
func SetupRoutes(
	pipeline *services.Pipeline,
	store repository.ScanRepository,
	photos *photostore.Store,
	hub *ws.HubService,
	cfg *config.Config,
	logger *logger.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.HealthHandler)

	// Classification
	mux.HandleFunc("/api/scan", handlers.ClassifyHandler(pipeline, photos, cfg, logger))

	// Scan history
	mux.HandleFunc("/api/scans", handlers.GetScansHandler(store, logger))
	mux.HandleFunc("/api/scans/search", handlers.SearchScansHandler(store, logger))
	mux.HandleFunc("/api/scans/stats", handlers.GetStatsHandler(store, logger))
	mux.HandleFunc("/api/scans/delete", handlers.DeleteScanHandler(store, photos, logger))
	mux.HandleFunc("/api/scans/clear", handlers.ClearScansHandler(store, photos, logger))
	mux.HandleFunc("/api/scans/view", handlers.ViewPhotoHandler(photos))

	// Live scan feed
	mux.HandleFunc("/api/watch", handlers.WatchScansHandler(hub, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))
	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(logger))

	return middleware.AuthMiddleware(mux, cfg.APIKey)
}
