package models

import "time"

// Reading represents one simulated environment sample
type Reading struct {
	Temperature float64 `json:"temperature"` // Celsius
	Light       float64 `json:"light"`       // lux
}

// Sample is a timestamped reading kept in the history buffer for charting
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Light       float64   `json:"light"`
}

// Range is an inclusive acceptable band
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// RoomProfile holds the acceptable temperature and light bands of a room
type RoomProfile struct {
	TemperatureRange Range `json:"temperature_range"`
	LightRange       Range `json:"light_range"`
}

// EnvironmentRecord is the combined row persisted once per monitoring tick
type EnvironmentRecord struct {
	Timestamp   time.Time    `json:"timestamp"`
	Room        string       `json:"room"`
	Temperature float64      `json:"temperature"`
	Light       float64      `json:"light"`
	Occupancy   int          `json:"occupancy"`
	Controls    ControlState `json:"controls"`
}
