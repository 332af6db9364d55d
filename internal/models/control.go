package models

// ClimateState is the air-conditioning actuator state
type ClimateState string

const (
	ClimateIdle    ClimateState = "idle"
	ClimateCooling ClimateState = "cooling"
	ClimateHeating ClimateState = "heating"
)

// LightState is the lighting actuator state
type LightState string

const (
	LightOn   LightState = "on"
	LightDim  LightState = "dim"
	LightHold LightState = "hold"
)

// ControlState is the pair of actuator states derived on every tick
type ControlState struct {
	Climate ClimateState `json:"climate"`
	Light   LightState   `json:"light"`
}
