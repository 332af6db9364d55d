package models

import "time"

// UnknownIdentity marks a face that was detected but not matched
const UnknownIdentity = "unknown"

// OccupancyResult is the outcome of one recognition window
type OccupancyResult struct {
	// Identity is the last face seen in the window; empty when no face was seen
	Identity string
	// Recognized is the deduplicated, sorted set of known identities
	Recognized []string
}

// Detection is a single face match reported by the vision worker
type Detection struct {
	Code       int     `json:"code"`
	Confidence float64 `json:"confidence"` // distance, lower is closer
}

// RecognizeRequest asks the vision worker to sample the camera for faces
type RecognizeRequest struct {
	RequestID       string    `json:"request_id"`
	Room            string    `json:"room"`
	DurationSeconds float64   `json:"duration_seconds"` // 0 means until cancelled
	Silent          bool      `json:"silent"`
	Timestamp       time.Time `json:"timestamp"`
}

// RecognizeResponse carries every detection seen during the window
type RecognizeResponse struct {
	RequestID  string      `json:"request_id"`
	Detections []Detection `json:"detections"`
	Error      string      `json:"error,omitempty"`
}

// QRRequest asks the vision worker to scan one QR code
type QRRequest struct {
	RequestID      string    `json:"request_id"`
	Room           string    `json:"room"`
	TimeoutSeconds float64   `json:"timeout_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

// QRResponse carries the raw QR payload, base64 encoded on the wire
type QRResponse struct {
	RequestID string `json:"request_id"`
	Data      []byte `json:"data"`
	Error     string `json:"error,omitempty"`
}

// Worker error codes reported in response payloads
const (
	WorkerErrorCameraUnavailable = "camera_unavailable"
	WorkerErrorMissingAsset      = "missing_asset"
)
