package sensor

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_WithinBounds(t *testing.T) {
	sim := NewSimulator(24.0, 400, rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		r := sim.Generate()

		assert.GreaterOrEqual(t, r.Temperature, 21.0)
		assert.LessOrEqual(t, r.Temperature, 27.0)
		assert.GreaterOrEqual(t, r.Light, 250.0)
		assert.LessOrEqual(t, r.Light, 550.0)
	}
}

func TestGenerate_Rounding(t *testing.T) {
	sim := NewSimulator(24.0, 400, rand.NewPCG(7, 11))

	for i := 0; i < 200; i++ {
		r := sim.Generate()

		assert.InDelta(t, r.Temperature, math.Round(r.Temperature*10)/10, 1e-9, "temperature %v has more than one decimal", r.Temperature)
		assert.Equal(t, math.Trunc(r.Light), r.Light, "light %v is not an integer", r.Light)
	}
}

func TestGenerate_DeterministicWithSeed(t *testing.T) {
	a := NewSimulator(24.0, 400, rand.NewPCG(42, 42))
	b := NewSimulator(24.0, 400, rand.NewPCG(42, 42))

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestGenerate_CustomBaseline(t *testing.T) {
	sim := NewSimulator(10, 1000, nil)

	for i := 0; i < 100; i++ {
		r := sim.Generate()
		assert.InDelta(t, 10, r.Temperature, TemperatureSpread+0.05)
		assert.InDelta(t, 1000, r.Light, LightSpread+0.5)
	}
}
