package model

import "image"

// Detection is one predicted object. Coordinates are the box center and size in
// source-image pixels, as returned by the detection service.
type Detection struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Confidence  float64 `json:"confidence"`
	Class       string  `json:"class,omitempty"`
	ClassID     int     `json:"class_id,omitempty"`
	DetectionID string  `json:"detection_id,omitempty"`
}

// Rect is an axis-aligned box in floating point pixel coordinates.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Rect converts the center/size form into corner coordinates.
func (d Detection) Rect() Rect {
	return Rect{
		X1: d.X - d.Width/2,
		Y1: d.Y - d.Height/2,
		X2: d.X + d.Width/2,
		Y2: d.Y + d.Height/2,
	}
}

// Dx returns the rectangle width.
func (r Rect) Dx() float64 { return r.X2 - r.X1 }

// Dy returns the rectangle height.
func (r Rect) Dy() float64 { return r.Y2 - r.Y1 }

// Origin returns the top-left corner truncated toward zero, where the label plate is placed.
func (r Rect) Origin() image.Point {
	return image.Pt(int(r.X1), int(r.Y1))
}

// PredictionResponse is the validated result of one call to the detection service.
type PredictionResponse struct {
	Predictions []Detection `json:"predictions"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
	Time        float64     `json:"time"` // Seconds
}

// RenderConfig holds the user thresholds, both percentages forwarded verbatim to the service.
type RenderConfig struct {
	Confidence int `json:"confidence"`
	Overlap    int `json:"overlap"`
}

// Validate checks that both thresholds are within [0,100].
func (c RenderConfig) Validate() error {
	if c.Confidence < 0 || c.Confidence > 100 {
		return Errorf(ErrInvalidConfig, "confidence %d out of range [0,100]", c.Confidence)
	}
	if c.Overlap < 0 || c.Overlap > 100 {
		return Errorf(ErrInvalidConfig, "overlap %d out of range [0,100]", c.Overlap)
	}
	return nil
}

// Summary holds the aggregate figures shown under the annotated image.
type Summary struct {
	CoveragePercent int `json:"coverage_percent"`
	LatencyMS       int `json:"latency_ms"`
}
