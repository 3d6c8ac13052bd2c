package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"wastedetect/internal/config"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/route"
	"wastedetect/internal/service"
	"wastedetect/internal/service/ai"
	"wastedetect/internal/service/gallery"
	"wastedetect/internal/service/overlay"
	"wastedetect/internal/service/websocket"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	hubService *websocket.HubService
	manager    *service.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	examples, err := gallery.Load(cfg.GalleryDirectory, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load gallery")
	}

	renderer, err := overlay.NewRenderer(cfg.FontPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load font")
	}

	detector := ai.NewDetectorService(cfg, config.EnvSecretStore{}, log)
	hub := websocket.NewHubService(log)
	defaults := model.RenderConfig{Confidence: cfg.DefaultConfidence, Overlap: cfg.DefaultOverlap}

	return &App{
		config:     cfg,
		logger:     log,
		hubService: hub,
		manager:    service.NewManager(detector, renderer, examples, hub, defaults, log),
	}, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start background services
	go a.hubService.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           route.SetupRoutes(a.manager, a.hubService, a.config, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if _, err := (config.EnvSecretStore{}).APIKey(); err != nil {
		a.logger.Warning("%v: detection requests will fail until it is set", err)
	}

	a.logger.Info("Waste detection server listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Examples: %s (%d), detection endpoint: %s/%s",
		a.config.GalleryDirectory, a.manager.GetGallery().Len(), a.config.DetectURL, a.config.DetectModel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
