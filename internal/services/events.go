package services

import (
	"smart-classroom/internal/models"
)

// Event is a state change flowing out of the runtime to the presentation
// layer
type Event interface {
	event()
}

// EnvironmentEvent is emitted after every monitoring tick
type EnvironmentEvent struct {
	Record  models.EnvironmentRecord
	History []models.Sample
}

// OccupancyEvent is emitted whenever a recognition result is applied
type OccupancyEvent struct {
	Count   int
	Names   []string
	Summary string
	Manual  bool
}

// SignInEvent carries the full sign-in display list after a change
type SignInEvent struct {
	Records []models.SignRecord
}

// NoticeLevel grades a user-visible message
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// NoticeEvent is a message the user should see
type NoticeEvent struct {
	Level   NoticeLevel
	Message string
}

// StatusEvent reports which loops and camera operations are active
type StatusEvent struct {
	Monitoring  bool
	Polling     bool
	Recognizing bool
	Scanning    bool
}

func (EnvironmentEvent) event() {}
func (OccupancyEvent) event()   {}
func (SignInEvent) event()      {}
func (NoticeEvent) event()      {}
func (StatusEvent) event()      {}
