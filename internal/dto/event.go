package dto

// Event kinds pushed to /api/events listeners.
const (
	EventStarted  = "started"
	EventFinished = "finished"
	EventFailed   = "failed"
)

// Event reports the progress of a detection request. Every viewer receives every
// event, so it carries no image names.
type Event struct {
	Event      string `json:"event"`
	RequestID  string `json:"request_id"`
	Detections int    `json:"detections,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}
