package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"smart-classroom/internal/camera"
	"smart-classroom/internal/models"
)

// errNoResponse is wrapped as camera unavailable when the worker is silent
var errNoResponse = errors.New("no response from vision worker")

// CameraBridge implements camera.Source by delegating to a vision worker
// that owns the physical camera. Requests go out on the request topics and
// the matching responses are read from the subscriber's channels.
type CameraBridge struct {
	broker Broker
	room   string
	logger *slog.Logger

	recognizeReqTopic string
	qrReqTopic        string
	recognizeResp     <-chan *models.RecognizeResponse
	qrResp            <-chan *models.QRResponse

	assets    camera.Assets
	threshold float64
	grace     time.Duration
	device    camera.Device
	now       func() time.Time
}

// CameraBridgeConfig holds configuration for the camera bridge
type CameraBridgeConfig struct {
	Room                  string
	RecognizeRequestTopic string
	QRRequestTopic        string
	Assets                camera.Assets
	ConfidenceThreshold   float64
	// ResponseGrace is added to the requested window before giving up
	ResponseGrace time.Duration
}

// NewCameraBridge wires a bridge to the subscriber's response channels
func NewCameraBridge(broker Broker, sub *Subscriber, config CameraBridgeConfig, logger *slog.Logger) *CameraBridge {
	return &CameraBridge{
		broker:            broker,
		room:              config.Room,
		logger:            logger.With("component", "camera-bridge"),
		recognizeReqTopic: formatTopic(config.RecognizeRequestTopic, config.Room),
		qrReqTopic:        formatTopic(config.QRRequestTopic, config.Room),
		recognizeResp:     sub.RecognizeRespChan,
		qrResp:            sub.QRRespChan,
		assets:            config.Assets,
		threshold:         config.ConfidenceThreshold,
		grace:             config.ResponseGrace,
		now:               time.Now,
	}
}

// Recognize asks the worker to sample faces for window and resolves the
// reported detections against the local identity registry
func (b *CameraBridge) Recognize(ctx context.Context, window time.Duration, silent bool) (models.OccupancyResult, error) {
	release, err := b.device.Acquire()
	if err != nil {
		return models.OccupancyResult{}, err
	}
	defer release()

	if err := b.assets.Check(); err != nil {
		return models.OccupancyResult{}, err
	}
	registry, err := camera.LoadRegistry(b.assets.Registry)
	if err != nil {
		return models.OccupancyResult{}, err
	}
	if !b.broker.IsConnected() {
		return models.OccupancyResult{}, fmt.Errorf("%w: mqtt broker not connected", camera.ErrCameraUnavailable)
	}

	req := models.RecognizeRequest{
		RequestID:       uuid.NewString(),
		Room:            b.room,
		DurationSeconds: window.Seconds(),
		Silent:          silent,
		Timestamp:       b.now(),
	}
	if err := b.send(b.recognizeReqTopic, req); err != nil {
		return models.OccupancyResult{}, err
	}

	waitCtx, cancel := b.responseContext(ctx, window)
	defer cancel()

	for {
		select {
		case resp := <-b.recognizeResp:
			if resp.RequestID != req.RequestID {
				b.logger.Debug("discarding stale recognize response", "request_id", resp.RequestID)
				continue
			}
			if resp.Error != "" {
				return models.OccupancyResult{}, workerError(resp.Error)
			}
			return registry.Collect(resp.Detections, b.threshold), nil

		case <-waitCtx.Done():
			return models.OccupancyResult{}, b.waitError(ctx, "recognize")
		}
	}
}

// DecodeQR asks the worker for one QR payload. Invalid UTF-8 is dropped and
// surrounding whitespace trimmed.
func (b *CameraBridge) DecodeQR(ctx context.Context, timeout time.Duration) (string, error) {
	release, err := b.device.Acquire()
	if err != nil {
		return "", err
	}
	defer release()

	if !b.broker.IsConnected() {
		return "", fmt.Errorf("%w: mqtt broker not connected", camera.ErrCameraUnavailable)
	}

	req := models.QRRequest{
		RequestID:      uuid.NewString(),
		Room:           b.room,
		TimeoutSeconds: timeout.Seconds(),
		Timestamp:      b.now(),
	}
	if err := b.send(b.qrReqTopic, req); err != nil {
		return "", err
	}

	waitCtx, cancel := b.responseContext(ctx, timeout)
	defer cancel()

	for {
		select {
		case resp := <-b.qrResp:
			if resp.RequestID != req.RequestID {
				b.logger.Debug("discarding stale QR response", "request_id", resp.RequestID)
				continue
			}
			if resp.Error != "" {
				return "", workerError(resp.Error)
			}
			return strings.TrimSpace(strings.ToValidUTF8(string(resp.Data), "")), nil

		case <-waitCtx.Done():
			return "", b.waitError(ctx, "QR")
		}
	}
}

func (b *CameraBridge) send(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal camera request: %w", err)
	}
	if err := b.broker.Publish(topic, payload); err != nil {
		return fmt.Errorf("%w: failed to publish camera request: %v", camera.ErrCameraUnavailable, err)
	}
	return nil
}

// responseContext bounds the wait to window plus grace. A zero window
// waits for ctx alone.
func (b *CameraBridge) responseContext(ctx context.Context, window time.Duration) (context.Context, context.CancelFunc) {
	if window <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, window+b.grace)
}

func (b *CameraBridge) waitError(parent context.Context, kind string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	b.logger.Warn("vision worker did not answer", "request", kind)
	return fmt.Errorf("%w: %s: %v", camera.ErrCameraUnavailable, kind, errNoResponse)
}

// workerError maps a worker error code onto the camera sentinels
func workerError(code string) error {
	switch code {
	case models.WorkerErrorCameraUnavailable:
		return fmt.Errorf("%w: reported by vision worker", camera.ErrCameraUnavailable)
	case models.WorkerErrorMissingAsset:
		return fmt.Errorf("%w: reported by vision worker", camera.ErrMissingAsset)
	default:
		return fmt.Errorf("vision worker error: %s", code)
	}
}
