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

// Sign-in message actions
const (
	SignInActionCheckIn = "check_in"
	SignInActionClear   = "clear"
)

// EnvironmentMessage is published on the environment topic every tick
type EnvironmentMessage struct {
	Timestamp   time.Time `json:"timestamp"`
	Room        string    `json:"room"`
	Temperature float64   `json:"temperature"`
	Light       float64   `json:"light"`
	Occupancy   int       `json:"occupancy"`
}

// ControlMessage carries the actuator states derived from the same tick
type ControlMessage struct {
	Timestamp time.Time           `json:"timestamp"`
	Room      string              `json:"room"`
	Climate   models.ClimateState `json:"climate"`
	Light     models.LightState   `json:"light"`
}

// SignInMessage announces a check-in or a cleared sign-in log
type SignInMessage struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Room      string    `json:"room"`
	Name      string    `json:"name,omitempty"`
	Source    string    `json:"source,omitempty"`
}

// Publisher handles MQTT publishing from channels. It also satisfies
// records.Store so it can sit behind the same fan-out as the CSV logs.
type Publisher struct {
	broker Broker
	room   string
	logger *slog.Logger

	// Input channels (read by publisher, written by the record fan-out)
	EnvironmentChan chan *models.EnvironmentRecord
	SignInChan      chan *SignInMessage

	// Topic patterns
	environmentTopic string // e.g., "classroom/{room}/environment"
	controlTopic     string
	signInTopic      string

	enqueueTimeout time.Duration
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	Room             string
	EnvironmentTopic string
	ControlTopic     string
	SignInTopic      string
}

// NewPublisher creates a new MQTT publisher with buffered input channels
func NewPublisher(broker Broker, cfg PublisherConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		broker:           broker,
		room:             cfg.Room,
		logger:           logger.With("component", "mqtt-publisher"),
		EnvironmentChan:  make(chan *models.EnvironmentRecord, 100),
		SignInChan:       make(chan *SignInMessage, 100),
		environmentTopic: cfg.EnvironmentTopic,
		controlTopic:     cfg.ControlTopic,
		signInTopic:      cfg.SignInTopic,
		enqueueTimeout:   time.Second,
	}
}

// Start begins publishing queued records
// Runs until context is cancelled
func (p *Publisher) Start(ctx context.Context) {
	p.logger.Info("starting")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("context cancelled, shutting down")
			return

		case record := <-p.EnvironmentChan:
			if err := p.publishEnvironment(record); err != nil {
				p.logger.Error("failed to publish environment", "error", err)
			}

		case msg := <-p.SignInChan:
			if err := p.publishJSON(formatTopic(p.signInTopic, msg.Room), msg); err != nil {
				p.logger.Error("failed to publish sign-in", "error", err)
			}
		}
	}
}

// publishEnvironment sends the reading followed by the derived actuator
// states
func (p *Publisher) publishEnvironment(record *models.EnvironmentRecord) error {
	env := EnvironmentMessage{
		Timestamp:   record.Timestamp,
		Room:        record.Room,
		Temperature: record.Temperature,
		Light:       record.Light,
		Occupancy:   record.Occupancy,
	}
	if err := p.publishJSON(formatTopic(p.environmentTopic, record.Room), env); err != nil {
		return err
	}

	cmd := ControlMessage{
		Timestamp: record.Timestamp,
		Room:      record.Room,
		Climate:   record.Controls.Climate,
		Light:     record.Controls.Light,
	}
	return p.publishJSON(formatTopic(p.controlTopic, record.Room), cmd)
}

func (p *Publisher) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	if err := p.broker.Publish(topic, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug("published", "topic", topic, "bytes", len(payload))
	p.logger.Log(context.Background(), config.LevelTrace, "published payload", "topic", topic, "payload", string(payload))
	return nil
}

// AppendEnvironment queues a record for publishing
func (p *Publisher) AppendEnvironment(ctx context.Context, record models.EnvironmentRecord) error {
	select {
	case p.EnvironmentChan <- &record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.enqueueTimeout):
		return fmt.Errorf("mqtt environment channel full, dropping record")
	}
}

// AppendSignIn queues a check-in announcement
func (p *Publisher) AppendSignIn(ctx context.Context, record models.SignRecord) error {
	return p.enqueueSignIn(ctx, &SignInMessage{
		Action:    SignInActionCheckIn,
		Timestamp: record.Timestamp,
		Room:      p.room,
		Name:      record.Name,
		Source:    record.Source,
	})
}

// ClearSignIns announces that the sign-in log was cleared
func (p *Publisher) ClearSignIns(ctx context.Context) error {
	return p.enqueueSignIn(ctx, &SignInMessage{
		Action:    SignInActionClear,
		Timestamp: time.Now(),
		Room:      p.room,
	})
}

func (p *Publisher) enqueueSignIn(ctx context.Context, msg *SignInMessage) error {
	select {
	case p.SignInChan <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.enqueueTimeout):
		return fmt.Errorf("mqtt sign-in channel full, dropping %s message", msg.Action)
	}
}
