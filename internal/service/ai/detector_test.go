package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"wastedetect/internal/config"
	"wastedetect/internal/logger"
	"wastedetect/internal/model"
)

type staticSecrets struct {
	key string
	err error
}

func (s staticSecrets) APIKey() (string, error) { return s.key, s.err }

func newTestDetector(t *testing.T, handler http.HandlerFunc) *DetectorService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		DetectURL:     server.URL + "/",
		DetectModel:   "waste-detection-vnfx1/2",
		DetectStroke:  5,
		DetectTimeout: 5 * time.Second,
	}
	return NewDetectorService(cfg, staticSecrets{key: "test+key"}, logger.NewNop())
}

func uniformImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

const sampleResponse = `{
	"predictions": [
		{"x": 50, "y": 50, "width": 100, "height": 100, "confidence": 0.87, "class": "waste", "class_id": 0, "detection_id": "a1"},
		{"x": 150.5, "y": 20, "width": 10, "height": 4, "confidence": 0.51, "class": "waste"}
	],
	"image": {"width": 200, "height": 200},
	"time": 0.342
}`

func TestDetect_BuildsRequest(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte

	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, sampleResponse)
	})

	_, err := d.Detect(context.Background(), uniformImage(64, 48), model.RenderConfig{Confidence: 40, Overlap: 30})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if gotReq.Method != http.MethodPost {
		t.Errorf("Expected POST, got %s", gotReq.Method)
	}
	if gotReq.URL.Path != "/waste-detection-vnfx1/2" {
		t.Errorf("Unexpected path %s", gotReq.URL.Path)
	}
	wantQuery := "api_key=test%2Bkey&format=json&overlap=30&confidence=40&stroke=5"
	if gotReq.URL.RawQuery != wantQuery {
		t.Errorf("Unexpected query\n got: %s\nwant: %s", gotReq.URL.RawQuery, wantQuery)
	}
	if ct := gotReq.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Unexpected content type %s", ct)
	}
	if accept := gotReq.Header.Get("Accept"); accept != "application/json" {
		t.Errorf("Unexpected accept header %s", accept)
	}

	jpg, err := base64.StdEncoding.DecodeString(string(gotBody))
	if err != nil {
		t.Fatalf("Body is not base64: %v", err)
	}
	decoded, err := jpeg.Decode(strings.NewReader(string(jpg)))
	if err != nil {
		t.Fatalf("Body is not a JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 48 {
		t.Errorf("Unexpected payload size %v", decoded.Bounds())
	}
}

func TestDetect_ParsesResponse(t *testing.T) {
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleResponse)
	})

	res, err := d.Detect(context.Background(), uniformImage(8, 8), model.RenderConfig{Confidence: 50, Overlap: 50})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	want := &model.PredictionResponse{
		Predictions: []model.Detection{
			{X: 50, Y: 50, Width: 100, Height: 100, Confidence: 0.87, Class: "waste", DetectionID: "a1"},
			{X: 150.5, Y: 20, Width: 10, Height: 4, Confidence: 0.51, Class: "waste"},
		},
		ImageWidth:  200,
		ImageHeight: 200,
		Time:        0.342,
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Response mismatch (-want +got):\n%s", diff)
	}
}

func TestDetect_NonOKStatus(t *testing.T) {
	statuses := []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError, http.StatusServiceUnavailable}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				io.WriteString(w, `{"message":"nope"}`)
			})

			res, err := d.Detect(context.Background(), uniformImage(8, 8), model.RenderConfig{Confidence: 50, Overlap: 50})
			if !errors.Is(err, model.ErrNetwork) {
				t.Fatalf("Expected ErrNetwork, got %v", err)
			}
			if res != nil {
				t.Error("Expected nil response on failure")
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Errorf("Expected body excerpt in error, got %v", err)
			}
		})
	}
}

func TestDetect_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cfg := &config.Config{DetectURL: url, DetectModel: "m/1", DetectTimeout: time.Second}
	d := NewDetectorService(cfg, staticSecrets{key: "secret-key"}, logger.NewNop())

	_, err := d.Detect(context.Background(), uniformImage(8, 8), model.RenderConfig{Confidence: 50, Overlap: 50})
	if !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("Expected ErrNetwork, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("Error leaks the credential: %v", err)
	}
}

func TestDetect_MalformedBody(t *testing.T) {
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"image": {"width": 10, "height": 10}, "time": 0.1}`)
	})

	res, err := d.Detect(context.Background(), uniformImage(8, 8), model.RenderConfig{Confidence: 50, Overlap: 50})
	if !errors.Is(err, model.ErrMalformedResponse) {
		t.Fatalf("Expected ErrMalformedResponse, got %v", err)
	}
	if res != nil {
		t.Error("Missing predictions must not produce an empty result")
	}
}

func TestDetect_InvalidConfig(t *testing.T) {
	called := false
	d := newTestDetector(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := d.Detect(context.Background(), uniformImage(8, 8), model.RenderConfig{Confidence: 120, Overlap: 50})
	if !errors.Is(err, model.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
	if called {
		t.Error("Service should not be called with an invalid config")
	}
}

func TestDetect_MissingSecret(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Service should not be called without a credential")
	}))
	defer server.Close()

	cfg := &config.Config{DetectURL: server.URL, DetectModel: "m/1"}
	missing := errors.New("no key")
	d := NewDetectorService(cfg, staticSecrets{err: missing}, logger.NewNop())

	_, err := d.Detect(context.Background(), uniformImage(8, 8), model.RenderConfig{Confidence: 50, Overlap: 50})
	if !errors.Is(err, missing) {
		t.Errorf("Expected secret store error, got %v", err)
	}
}

func TestNewDetectorService_DefaultStroke(t *testing.T) {
	d := NewDetectorService(&config.Config{DetectURL: "https://x.example/", DetectModel: "/m/2/"}, staticSecrets{}, logger.NewNop())
	got := d.endpoint("k", model.RenderConfig{Confidence: 1, Overlap: 2})
	want := "https://x.example/m/2?api_key=k&format=json&overlap=2&confidence=1&stroke=5"
	if got != want {
		t.Errorf("endpoint() = %s, expected %s", got, want)
	}
}
