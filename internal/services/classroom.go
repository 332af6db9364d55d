package services

import (
	"fmt"
	"strings"

	"smart-classroom/internal/aggregator"
	"smart-classroom/internal/models"
)

// Classroom is the state shared by the services. It is only touched from
// event loop callbacks.
type Classroom struct {
	Room       string
	Profile    models.RoomProfile
	Occupancy  int
	Recognized []string
	History    *aggregator.History
}

// Apply folds a recognition result into the occupancy count and returns a
// summary line. A non-empty recognized set wins; otherwise a seen but
// unmatched face counts as one person and no face counts as zero.
func (c *Classroom) Apply(result models.OccupancyResult, source string) string {
	switch {
	case len(result.Recognized) > 0:
		c.Occupancy = len(result.Recognized)
		c.Recognized = append([]string(nil), result.Recognized...)
		return fmt.Sprintf("%s: recognized %d people (%s)", source, c.Occupancy, strings.Join(c.Recognized, ", "))
	case result.Identity == "":
		c.Occupancy = 0
		c.Recognized = nil
		return fmt.Sprintf("%s: no face detected", source)
	default:
		c.Occupancy = 1
		c.Recognized = nil
		return fmt.Sprintf("%s: unknown person detected", source)
	}
}
