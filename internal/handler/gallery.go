package handler

import (
	"net/http"
	"strconv"

	"wastedetect/internal/config"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/service"
	"wastedetect/internal/service/codec"
)

// ListExamplesHandler returns the example gallery in display order.
func ListExamplesHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, manager.GetGallery().Examples())
	}
}

// ThumbnailHandler serves a square JPEG preview of the example given by the "index" query parameter.
func ThumbnailHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := exampleIndex(r)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		data, err := manager.GetGallery().Thumbnail(index, cfg.ThumbnailSize)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "max-age=3600")
		if _, err := w.Write(data); err != nil {
			logger.Error("Error writing thumbnail: %v", err)
		}
	}
}

// ExampleImageHandler serves the full example image given by the "index" query parameter as JPEG.
func ExampleImageHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := exampleIndex(r)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		img, err := manager.GetGallery().Open(index)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		if err := codec.WriteDisplayJPEG(w, img); err != nil {
			logger.Error("Error writing example %d: %v", index, err)
		}
	}
}

func exampleIndex(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.Errorf(model.ErrUnknownExample, "index %q", raw)
	}
	return index, nil
}
