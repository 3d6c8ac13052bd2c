package route

import (
	"net/http"
	"os"
	"path/filepath"

	"wastedetect/internal/config"
	"wastedetect/internal/handler"
	"wastedetect/internal/logger"
	"wastedetect/internal/middleware"
	"wastedetect/internal/service"
	"wastedetect/internal/service/websocket"
)

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the page, static files, API endpoints and log viewer,
// and wraps the mux with request logging and CORS.
func SetupRoutes(manager *service.Manager, hub *websocket.HubService, cfg *config.Config, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// API endpoints
	mux.HandleFunc("/api/examples", handler.ListExamplesHandler(manager, log))
	mux.HandleFunc("/api/examples/image", handler.ExampleImageHandler(manager, log))
	mux.HandleFunc("/api/examples/thumbnail", handler.ThumbnailHandler(manager, cfg, log))
	mux.HandleFunc("/api/detect", handler.DetectHandler(manager, cfg, log))
	mux.HandleFunc("/api/events", handler.EventsWebsocketHandler(hub, log))
	mux.HandleFunc("/healthz", handler.HealthHandler(manager, log))

	// Log endpoints
	for name, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(log, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Automatic HTML handler mapping, for example /help -> static/help.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	// Apply middleware
	return middleware.CORSMiddleware(cfg.CORSOrigins)(middleware.LoggingMiddleware(log)(mux))
}
