package dto

import "wastedetect/internal/model"

// DetectionResult is the payload returned by POST /api/detect.
type DetectionResult struct {
	RequestID   string            `json:"request_id"`
	Source      string            `json:"source"`    // Upload file name or example caption
	Annotated   string            `json:"annotated"` // Base64 JPEG
	ImageWidth  int               `json:"image_width"`
	ImageHeight int               `json:"image_height"`
	Detections  []model.Detection `json:"detections"`
	Summary     model.Summary     `json:"summary"`
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
