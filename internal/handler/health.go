package handler

import (
	"net/http"

	"wastedetect/internal/logger"
	"wastedetect/internal/service"
)

// HealthHandler reports liveness and the number of loaded examples.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"examples": manager.GetGallery().Len(),
		})
	}
}
