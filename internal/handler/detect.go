package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"wastedetect/internal/config"
	"wastedetect/internal/dto"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/service"
	"wastedetect/internal/service/codec"
)

// DetectHandler runs one detection. It accepts multipart or urlencoded forms with
// an "image" file or an "example" index plus optional "confidence" and "overlap"
// percentages. An uploaded file wins over the example; with neither, example 0 is used.
func DetectHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)
		if err := r.ParseMultipartForm(cfg.MaxUploadSize); err != nil {
			if !errors.Is(err, http.ErrNotMultipart) {
				writeError(w, logger, errors.Wrap(err, "failed to read form"), "")
				return
			}
			if err := r.ParseForm(); err != nil {
				writeError(w, logger, errors.Wrap(err, "failed to read form"), "")
				return
			}
		}

		renderCfg, err := parseRenderConfig(r, manager.Defaults())
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		src, err := parseSource(r)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		img, name, err := manager.Resolve(src)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		result, err := manager.Analyze(r.Context(), name, img, renderCfg)
		if err != nil {
			writeError(w, logger, err, "")
			return
		}

		annotated, err := codec.DisplayBase64(result.Annotated)
		if err != nil {
			writeError(w, logger, errors.Wrap(err, "failed to encode annotated image"), result.RequestID)
			return
		}

		detections := result.Response.Predictions
		if detections == nil {
			detections = []model.Detection{}
		}

		writeJSON(w, logger, http.StatusOK, dto.DetectionResult{
			RequestID:   result.RequestID,
			Source:      result.Source,
			Annotated:   annotated,
			ImageWidth:  result.Response.ImageWidth,
			ImageHeight: result.Response.ImageHeight,
			Detections:  detections,
			Summary:     result.Summary,
		})
	}
}

func parseSource(r *http.Request) (service.Source, error) {
	var src service.Source

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return src, errors.Wrap(err, "failed to read upload")
			}
			src.HasUpload = true
			src.Upload = data
			src.UploadName = header.Filename
		case !errors.Is(err, http.ErrMissingFile):
			return src, errors.Wrap(err, "failed to read upload")
		}
	}

	if v := strings.TrimSpace(r.FormValue("example")); v != "" {
		index, err := strconv.Atoi(v)
		if err != nil {
			return src, model.Errorf(model.ErrUnknownExample, "example %q", v)
		}
		src.Example = index
	}
	return src, nil
}

func parseRenderConfig(r *http.Request, defaults model.RenderConfig) (model.RenderConfig, error) {
	cfg := defaults

	var err error
	if cfg.Confidence, err = percentValue(r.FormValue("confidence"), defaults.Confidence); err != nil {
		return cfg, model.Errorf(model.ErrInvalidConfig, "confidence: %v", err)
	}
	if cfg.Overlap, err = percentValue(r.FormValue("overlap"), defaults.Overlap); err != nil {
		return cfg, model.Errorf(model.ErrInvalidConfig, "overlap: %v", err)
	}
	return cfg, cfg.Validate()
}

func percentValue(v string, def int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
