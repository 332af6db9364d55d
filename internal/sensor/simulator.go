package sensor

import (
	"math"
	"math/rand/v2"
	"time"

	"smart-classroom/internal/models"
)

// Fluctuation bands around the baselines
const (
	TemperatureSpread = 3.0
	LightSpread       = 150.0
)

// Simulator produces bounded-random temperature and light readings. It is
// not safe for concurrent use; the monitoring loop owns it.
type Simulator struct {
	baseTemperature float64
	baseLight       float64
	rng             *rand.Rand
}

// NewSimulator creates a simulator around the given baselines. A nil src
// seeds from the current time.
func NewSimulator(baseTemperature, baseLight float64, src rand.Source) *Simulator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>17|1)
	}
	return &Simulator{
		baseTemperature: baseTemperature,
		baseLight:       baseLight,
		rng:             rand.New(src),
	}
}

// Generate draws temperature uniformly from base±3 rounded to one decimal
// and light from base±150 rounded to an integer
func (s *Simulator) Generate() models.Reading {
	temp := s.uniform(s.baseTemperature-TemperatureSpread, s.baseTemperature+TemperatureSpread)
	light := s.uniform(s.baseLight-LightSpread, s.baseLight+LightSpread)

	return models.Reading{
		Temperature: math.Round(temp*10) / 10,
		Light:       math.Round(light),
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}
