package app

import (
	"fmt"
	"net/http"

	"leafscan/internal/config"
	"leafscan/internal/imaging"
	"leafscan/internal/inference"
	"leafscan/internal/logger"
	"leafscan/internal/repository/sqlite"
	"leafscan/internal/routes"
	"leafscan/internal/services"
	"leafscan/internal/services/photostore"
	ws "leafscan/internal/services/websocket"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	engine   *inference.Engine
	pipeline *services.Pipeline
	store    *sqlite.ScanRepository
	photos   *photostore.Store
	hub      *ws.HubService
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg.LogDirectory)

	labels, err := inference.LoadLabels(cfg.LabelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	engine := inference.NewEngine(func() (inference.ModelRuntime, error) {
		return inference.OpenTFLite(cfg.ModelPath, cfg.InferenceThreads)
	}, labels)

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan database: %w", err)
	}
	store := sqlite.NewScanRepository(db)

	photos, err := photostore.NewStore(cfg.ImageDirectory)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init photo store: %w", err)
	}

	hub := ws.NewHubService(log)
	preprocessor := imaging.NewPreprocessor(cfg.MinDimension, cfg.LuminanceMin, cfg.LuminanceMax)
	pipeline := services.NewPipeline(preprocessor, engine, store, hub, cfg.TopK, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		engine:   engine,
		pipeline: pipeline,
		store:    store,
		photos:   photos,
		hub:      hub,
	}, nil
}

func (a *App) Run() error {
	go a.hub.Run()

	// Warm the model up front so the first scan does not pay the load, and
	// so a corrupt artifact fails at startup instead of mid-request.
	if err := a.engine.Load(); err != nil {
		return fmt.Errorf("model warm-up failed: %w", err)
	}
	defer a.engine.Dispose()
	defer a.db.Close()

	router := routes.SetupRoutes(a.pipeline, a.store, a.photos, a.hub, a.config, a.logger)

	fmt.Printf("🌿 Leaf Scan Server\n")
	fmt.Printf("📍 URL: http://localhost:%d\n", a.config.Port)
	fmt.Printf("🤖 Model: %s (%d classes)\n", a.config.ModelPath, len(a.engine.Labels()))
	fmt.Printf("💾 Database: %s\n", a.config.DBPath)
	fmt.Printf("📁 Photos: %s\n", a.config.ImageDirectory)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}
