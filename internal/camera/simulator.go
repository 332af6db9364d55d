package camera

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"smart-classroom/internal/models"
)

// Simulator stands in for a camera during demos. It draws random
// detections from the identity registry. Recognition still requires every
// face data file to be present.
type Simulator struct {
	assets    Assets
	threshold float64
	device    Device
	rng       *rand.Rand
	logger    *slog.Logger

	// ScanDelay is how long a simulated QR scan takes to find a code
	ScanDelay time.Duration
	// QRMissRate is the probability that a scan sees no code
	QRMissRate float64
}

// NewSimulator creates a simulated camera reading names from assets.Registry
func NewSimulator(assets Assets, threshold float64, src rand.Source, logger *slog.Logger) *Simulator {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>13|1)
	}
	return &Simulator{
		assets:     assets,
		threshold:  threshold,
		rng:        rand.New(src),
		logger:     logger.With("component", "camera-simulator"),
		ScanDelay:  1500 * time.Millisecond,
		QRMissRate: 0.2,
	}
}

// Recognize waits for the window and reports a random subset of the
// registered faces, occasionally with an unmatched one
func (s *Simulator) Recognize(ctx context.Context, window time.Duration, silent bool) (models.OccupancyResult, error) {
	release, err := s.device.Acquire()
	if err != nil {
		return models.OccupancyResult{}, err
	}
	defer release()

	if err := s.assets.Check(); err != nil {
		return models.OccupancyResult{}, err
	}
	registry, err := LoadRegistry(s.assets.Registry)
	if err != nil {
		return models.OccupancyResult{}, err
	}

	if !silent {
		s.logger.Info("simulated recognition started", "window", window)
	}
	if err := wait(ctx, window); err != nil {
		return models.OccupancyResult{}, err
	}

	var detections []models.Detection
	for code := range registry {
		if s.rng.Float64() < 0.5 {
			detections = append(detections, models.Detection{Code: code, Confidence: 40 + 50*s.rng.Float64()})
		}
	}
	if s.rng.Float64() < 0.1 {
		detections = append(detections, models.Detection{Code: -1, Confidence: 130})
	}
	s.rng.Shuffle(len(detections), func(i, j int) {
		detections[i], detections[j] = detections[j], detections[i]
	})

	return registry.Collect(detections, s.threshold), nil
}

// DecodeQR returns a random registered name after ScanDelay, or nothing
// when the miss roll fails or the timeout is shorter than the delay
func (s *Simulator) DecodeQR(ctx context.Context, timeout time.Duration) (string, error) {
	release, err := s.device.Acquire()
	if err != nil {
		return "", err
	}
	defer release()

	registry, err := LoadRegistry(s.assets.Registry)
	if err != nil {
		return "", err
	}

	if timeout < s.ScanDelay {
		return "", wait(ctx, timeout)
	}
	if err := wait(ctx, s.ScanDelay); err != nil {
		return "", err
	}

	names := registry.Names()
	if len(names) == 0 || s.rng.Float64() < s.QRMissRate {
		return "", nil
	}
	return names[s.rng.IntN(len(names))], nil
}

// wait blocks for d or until ctx is done; a zero d waits for ctx only
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		<-ctx.Done()
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
