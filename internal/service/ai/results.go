package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"wastedetect/internal/model"
)

// httpResult mirrors the service JSON. Required fields are pointers so that a missing
// field can be told apart from a zero value.
type httpResult struct {
	Predictions *[]httpPrediction `json:"predictions"`
	Image       *httpImage        `json:"image"`
	Time        *float64          `json:"time"`
}

type httpImage struct {
	Width  *flexInt `json:"width"`
	Height *flexInt `json:"height"`
}

type httpPrediction struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Width       *float64 `json:"width"`
	Height      *float64 `json:"height"`
	Confidence  *float64 `json:"confidence"`
	Class       string   `json:"class"`
	ClassID     int      `json:"class_id"`
	DetectionID string   `json:"detection_id"`
}

// maxDimension bounds image sizes and box coordinates accepted from the service.
const maxDimension = 1 << 20

// flexInt accepts a JSON number or a numeric string. The hosted API has reported
// image dimensions both ways. Fractions are truncated.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.Abs(v) > maxDimension {
		return fmt.Errorf("dimension %s out of range", raw)
	}
	*f = flexInt(int(v))
	return nil
}

// ParseResponse decodes and validates a service response body.
func ParseResponse(body []byte) (*model.PredictionResponse, error) {
	var raw httpResult
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return nil, model.Errorf(model.ErrMalformedResponse, "invalid JSON: %v", err)
	}

	if raw.Predictions == nil {
		return nil, model.Errorf(model.ErrMalformedResponse, "missing predictions")
	}
	if raw.Image == nil || raw.Image.Width == nil || raw.Image.Height == nil {
		return nil, model.Errorf(model.ErrMalformedResponse, "missing image dimensions")
	}
	if raw.Time == nil {
		return nil, model.Errorf(model.ErrMalformedResponse, "missing time")
	}

	width, height := int(*raw.Image.Width), int(*raw.Image.Height)
	if width <= 0 || height <= 0 {
		return nil, model.Errorf(model.ErrMalformedResponse, "image size %dx%d is not positive", width, height)
	}
	if *raw.Time < 0 {
		return nil, model.Errorf(model.ErrMalformedResponse, "negative time %v", *raw.Time)
	}

	res := &model.PredictionResponse{
		Predictions: make([]model.Detection, 0, len(*raw.Predictions)),
		ImageWidth:  width,
		ImageHeight: height,
		Time:        *raw.Time,
	}
	for i, p := range *raw.Predictions {
		det, err := p.toDetection()
		if err != nil {
			return nil, model.Errorf(model.ErrMalformedResponse, "prediction %d: %v", i, err)
		}
		res.Predictions = append(res.Predictions, det)
	}
	return res, nil
}

func (p httpPrediction) toDetection() (model.Detection, error) {
	required := []struct {
		name  string
		value *float64
	}{
		{"x", p.X}, {"y", p.Y}, {"width", p.Width}, {"height", p.Height}, {"confidence", p.Confidence},
	}
	for _, f := range required {
		if f.value == nil {
			return model.Detection{}, &fieldError{field: f.name, reason: "missing"}
		}
	}
	if *p.Width < 0 || *p.Height < 0 {
		return model.Detection{}, &fieldError{field: "width/height", reason: "negative"}
	}
	for _, v := range []float64{*p.X, *p.Y, *p.Width, *p.Height} {
		if math.Abs(v) > maxDimension {
			return model.Detection{}, &fieldError{field: "box", reason: "out of range"}
		}
	}
	if *p.Confidence < 0 || *p.Confidence > 1 {
		return model.Detection{}, &fieldError{field: "confidence", reason: "outside [0,1]"}
	}

	return model.Detection{
		X:           *p.X,
		Y:           *p.Y,
		Width:       *p.Width,
		Height:      *p.Height,
		Confidence:  *p.Confidence,
		Class:       p.Class,
		ClassID:     p.ClassID,
		DetectionID: p.DetectionID,
	}, nil
}

type fieldError struct {
	field  string
	reason string
}

func (e *fieldError) Error() string {
	return e.field + " " + e.reason
}
