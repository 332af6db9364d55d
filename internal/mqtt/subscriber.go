package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"smart-classroom/internal/models"
	"smart-classroom/pkg/config"
)

// Subscriber handles vision worker responses and writes them to channels
type Subscriber struct {
	broker Broker
	logger *slog.Logger

	// Output channels (written by subscriber, read by the camera bridge)
	RecognizeRespChan chan *models.RecognizeResponse
	QRRespChan        chan *models.QRResponse

	// Topics, already formatted for the room
	recognizeRespTopic string
	qrRespTopic        string

	sendTimeout time.Duration
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	Room                   string
	RecognizeResponseTopic string // e.g., "camera/{room}/recognize/response"
	QRResponseTopic        string // e.g., "camera/{room}/qr/response"
}

// NewSubscriber creates a new MQTT subscriber with buffered channels
func NewSubscriber(broker Broker, cfg SubscriberConfig, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		broker:             broker,
		logger:             logger.With("component", "mqtt-subscriber"),
		RecognizeRespChan:  make(chan *models.RecognizeResponse, 10),
		QRRespChan:         make(chan *models.QRResponse, 10),
		recognizeRespTopic: formatTopic(cfg.RecognizeResponseTopic, cfg.Room),
		qrRespTopic:        formatTopic(cfg.QRResponseTopic, cfg.Room),
		sendTimeout:        time.Second,
	}
}

// SubscribeAll subscribes to both response topics
func (s *Subscriber) SubscribeAll() error {
	if err := s.broker.Subscribe(s.recognizeRespTopic, s.handleRecognizeResponse); err != nil {
		return fmt.Errorf("failed to subscribe to recognize response topic: %w", err)
	}
	s.logger.Info("subscribed", "topic", s.recognizeRespTopic)

	if err := s.broker.Subscribe(s.qrRespTopic, s.handleQRResponse); err != nil {
		return fmt.Errorf("failed to subscribe to QR response topic: %w", err)
	}
	s.logger.Info("subscribed", "topic", s.qrRespTopic)

	return nil
}

// handleRecognizeResponse parses a recognition result and writes to channel
func (s *Subscriber) handleRecognizeResponse(topic string, payload []byte) {
	s.logger.Log(context.Background(), config.LevelTrace, "received payload", "topic", topic, "payload", string(payload))

	var resp models.RecognizeResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.logger.Warn("failed to unmarshal recognize response", "topic", topic, "error", err)
		return
	}

	s.logger.Debug("received recognize response", "request_id", resp.RequestID, "detections", len(resp.Detections))

	// Write to channel (non-blocking with timeout)
	select {
	case s.RecognizeRespChan <- &resp:
	case <-time.After(s.sendTimeout):
		s.logger.Warn("recognize response channel full, dropping message", "request_id", resp.RequestID)
	}
}

// handleQRResponse parses a QR scan result and writes to channel
func (s *Subscriber) handleQRResponse(topic string, payload []byte) {
	s.logger.Log(context.Background(), config.LevelTrace, "received payload", "topic", topic, "payload", string(payload))

	var resp models.QRResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		s.logger.Warn("failed to unmarshal QR response", "topic", topic, "error", err)
		return
	}

	s.logger.Debug("received QR response", "request_id", resp.RequestID, "bytes", len(resp.Data))

	select {
	case s.QRRespChan <- &resp:
	case <-time.After(s.sendTimeout):
		s.logger.Warn("QR response channel full, dropping message", "request_id", resp.RequestID)
	}
}
