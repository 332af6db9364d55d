package models

import "time"

// SourceQR is the source tag written for QR code check-ins
const SourceQR = "QR"

// SignRecord is one successful student check-in
type SignRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
}
