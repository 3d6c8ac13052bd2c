package service

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"

	"wastedetect/internal/dto"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/service/codec"
	"wastedetect/internal/service/gallery"
	"wastedetect/internal/service/overlay"
	"wastedetect/internal/service/summary"
)

// Detector returns predictions for an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image, cfg model.RenderConfig) (*model.PredictionResponse, error)
}

// Publisher receives progress events.
type Publisher interface {
	Publish(event dto.Event)
}

// Source selects the input image. An upload wins over Example, even an empty one,
// which then fails to decode.
type Source struct {
	HasUpload  bool
	Upload     []byte
	UploadName string
	Example    int
}

// Result is everything produced for one detection request.
type Result struct {
	RequestID string
	Source    string
	Response  *model.PredictionResponse
	Annotated *image.RGBA
	Summary   model.Summary
}

// Manager runs the detect, render and summarize pipeline for a single image.
type Manager struct {
	detector  Detector
	renderer  *overlay.Renderer
	gallery   *gallery.Gallery
	publisher Publisher
	defaults  model.RenderConfig
	logger    *logger.Logger
}

// NewManager wires the pipeline. publisher may be nil.
func NewManager(detector Detector, renderer *overlay.Renderer, gallery *gallery.Gallery,
	publisher Publisher, defaults model.RenderConfig, logger *logger.Logger) *Manager {
	return &Manager{
		detector:  detector,
		renderer:  renderer,
		gallery:   gallery,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// Resolve decodes the selected input and returns it with a display name.
func (m *Manager) Resolve(src Source) (image.Image, string, error) {
	if src.HasUpload || len(src.Upload) > 0 {
		img, err := codec.Decode(src.Upload)
		if err != nil {
			return nil, "", err
		}
		name := src.UploadName
		if name == "" {
			name = "upload"
		}
		return img, name, nil
	}

	name, err := m.gallery.Name(src.Example)
	if err != nil {
		return nil, "", err
	}
	img, err := m.gallery.Open(src.Example)
	if err != nil {
		return nil, "", err
	}
	return img, name, nil
}

// Analyze sends img to the detector and renders the answer. Nothing is retried;
// every failure is returned to the caller as is.
func (m *Manager) Analyze(ctx context.Context, source string, img image.Image, cfg model.RenderConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := m.logger.With("request_id", requestID)
	start := time.Now()

	log.Info("Detection started for %s (confidence=%d, overlap=%d)", source, cfg.Confidence, cfg.Overlap)
	m.publish(dto.Event{Event: dto.EventStarted, RequestID: requestID})

	resp, err := m.detector.Detect(ctx, img, cfg)
	if err == nil {
		var result *Result
		result, err = m.finish(requestID, source, img, resp)
		if err == nil {
			elapsed := time.Since(start)
			log.Info("Detection finished for %s: %d object(s), coverage %d%%, took %v",
				source, len(resp.Predictions), result.Summary.CoveragePercent, elapsed.Round(time.Millisecond))
			m.publish(dto.Event{
				Event:      dto.EventFinished,
				RequestID:  requestID,
				Detections: len(resp.Predictions),
				DurationMS: elapsed.Milliseconds(),
			})
			return result, nil
		}
	}

	log.Warning("Detection failed for %s: %v", source, err)
	m.publish(dto.Event{
		Event:      dto.EventFailed,
		RequestID:  requestID,
		DurationMS: time.Since(start).Milliseconds(),
		Error:      err.Error(),
	})
	return nil, err
}

func (m *Manager) finish(requestID, source string, img image.Image, resp *model.PredictionResponse) (*Result, error) {
	stats, err := summary.Summarize(resp)
	if err != nil {
		return nil, err
	}
	return &Result{
		RequestID: requestID,
		Source:    source,
		Response:  resp,
		Annotated: m.renderer.Render(img, resp.Predictions),
		Summary:   stats,
	}, nil
}

func (m *Manager) publish(event dto.Event) {
	if m.publisher != nil {
		m.publisher.Publish(event)
	}
}

// Defaults returns the thresholds used when a request does not set them.
func (m *Manager) Defaults() model.RenderConfig {
	return m.defaults
}

func (m *Manager) GetGallery() *gallery.Gallery {
	return m.gallery
}
