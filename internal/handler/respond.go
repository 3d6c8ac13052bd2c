package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"wastedetect/internal/config"
	"wastedetect/internal/dto"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
)

// statusFor maps an error kind to the HTTP status returned to the page.
func statusFor(err error) int {
	var missing *config.MissingSecretError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, model.ErrInvalidImageFormat), errors.Is(err, model.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnknownExample):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNetwork), errors.Is(err, model.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &missing):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, err error, requestID string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed with %d: %v", status, err)
	}
	writeJSON(w, logger, status, dto.ErrorResponse{Error: err.Error(), RequestID: requestID})
}
