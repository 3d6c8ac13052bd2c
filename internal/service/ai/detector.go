package ai

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wastedetect/internal/config"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
	"wastedetect/internal/service/codec"
)

const (
	// DefaultStroke is the annotation stroke width requested from the service.
	DefaultStroke = 5
	// maxErrorBody bounds how much of a failed response is copied into the error message.
	maxErrorBody = 512
)

// SecretStore supplies the detection API credential. It is consulted on every call.
type SecretStore interface {
	APIKey() (string, error)
}

// DetectorService calls the hosted object-detection endpoint.
type DetectorService struct {
	client  *http.Client
	baseURL string
	modelID string
	stroke  int
	secrets SecretStore
	logger  *logger.Logger
}

// NewDetectorService creates a detection client from config.
func NewDetectorService(cfg *config.Config, secrets SecretStore, logger *logger.Logger) *DetectorService {
	stroke := cfg.DetectStroke
	if stroke <= 0 {
		stroke = DefaultStroke
	}
	return &DetectorService{
		client: &http.Client{
			Timeout: cfg.DetectTimeout,
		},
		baseURL: strings.TrimRight(cfg.DetectURL, "/"),
		modelID: strings.Trim(cfg.DetectModel, "/"),
		stroke:  stroke,
		secrets: secrets,
		logger:  logger,
	}
}

// Detect sends img to the detection service with the given thresholds and returns the
// validated predictions. A single attempt is made.
func (s *DetectorService) Detect(ctx context.Context, img image.Image, cfg model.RenderConfig) (*model.PredictionResponse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key, err := s.secrets.APIKey()
	if err != nil {
		return nil, err
	}

	payload, err := codec.EncodeBase64JPEG(img)
	if err != nil {
		return nil, model.Errorf(model.ErrInvalidImageFormat, "failed to encode image: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(key, cfg), strings.NewReader(payload))
	if err != nil {
		return nil, model.Errorf(model.ErrNetwork, "failed to build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		// The URL carries the credential, keep it out of the message.
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return nil, model.Errorf(model.ErrNetwork, "request to %s failed: %v", s.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.Errorf(model.ErrNetwork, "failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, model.Errorf(model.ErrNetwork, "http error: %s: %s", resp.Status, excerpt(body))
	}

	result, err := ParseResponse(body)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Detection finished: %d prediction(s) in %v (service reported %.3fs)",
		len(result.Predictions), time.Since(start).Round(time.Millisecond), result.Time)

	return result, nil
}

// endpoint builds the request URL. Parameter order follows the service documentation.
func (s *DetectorService) endpoint(key string, cfg model.RenderConfig) string {
	return fmt.Sprintf("%s/%s?api_key=%s&format=json&overlap=%d&confidence=%d&stroke=%d",
		s.baseURL, s.modelID, url.QueryEscape(key), cfg.Overlap, cfg.Confidence, s.stroke)
}

func excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
