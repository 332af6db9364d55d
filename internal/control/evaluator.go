// Package control derives actuator states from a reading and a room profile.
package control

import "smart-classroom/internal/models"

// Evaluate applies the climate and lighting rules. Values equal to a band
// edge take the no-action branch.
func Evaluate(reading models.Reading, profile models.RoomProfile, occupancy int) models.ControlState {
	return models.ControlState{
		Climate: climate(reading.Temperature, profile.TemperatureRange),
		Light:   lighting(reading.Light, profile.LightRange, occupancy),
	}
}

func climate(temperature float64, band models.Range) models.ClimateState {
	switch {
	case temperature > band.Max:
		return models.ClimateCooling
	case temperature < band.Min:
		return models.ClimateHeating
	default:
		return models.ClimateIdle
	}
}

// lighting only switches the lights on when someone is in the room
func lighting(light float64, band models.Range, occupancy int) models.LightState {
	switch {
	case light < band.Min && occupancy > 0:
		return models.LightOn
	case light > band.Max:
		return models.LightDim
	default:
		return models.LightHold
	}
}
