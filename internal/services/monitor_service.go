package services

import (
	"context"
	"log/slog"
	"time"

	"smart-classroom/internal/control"
	"smart-classroom/internal/eventloop"
	"smart-classroom/internal/models"
	"smart-classroom/internal/records"
)

// persistTimeout bounds a single store write made from the loop
const persistTimeout = 5 * time.Second

// ReadingSource produces one environment reading per call
type ReadingSource interface {
	Generate() models.Reading
}

// MonitorService runs the periodic environment tick: read, record,
// evaluate, persist, notify
type MonitorService struct {
	ctx      context.Context
	sched    eventloop.Scheduler
	state    *Classroom
	sensor   ReadingSource
	store    records.Store
	emit     func(Event)
	onStatus func()
	now      func() time.Time
	interval time.Duration
	logger   *slog.Logger

	running bool
	pending eventloop.Handle
}

// Running reports whether ticks are being scheduled
func (s *MonitorService) Running() bool {
	return s.running
}

// Start runs one tick immediately and keeps ticking every interval.
// It is a no-op while already running.
func (s *MonitorService) Start() {
	if s.running {
		return
	}
	s.running = true
	s.logger.Info("monitoring started", "interval", s.interval)
	s.onStatus()
	s.tick()
}

// Stop cancels the pending tick. It is a no-op while stopped.
func (s *MonitorService) Stop() {
	if !s.running {
		return
	}
	s.running = false
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	s.logger.Info("monitoring stopped")
	s.onStatus()
}

func (s *MonitorService) tick() {
	s.pending = nil

	reading := s.sensor.Generate()
	now := s.now()
	occupancy := s.state.Occupancy

	s.state.History.Push(models.Sample{
		Timestamp:   now,
		Temperature: reading.Temperature,
		Light:       reading.Light,
	})

	record := models.EnvironmentRecord{
		Timestamp:   now,
		Room:        s.state.Room,
		Temperature: reading.Temperature,
		Light:       reading.Light,
		Occupancy:   occupancy,
		Controls:    control.Evaluate(reading, s.state.Profile, occupancy),
	}

	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	if err := s.store.AppendEnvironment(ctx, record); err != nil {
		s.logger.Error("failed to persist environment record", "error", err)
	}
	cancel()

	s.logger.Debug("tick",
		"temperature", record.Temperature,
		"light", record.Light,
		"occupancy", record.Occupancy,
		"climate", record.Controls.Climate,
		"lighting", record.Controls.Light,
	)

	s.emit(EnvironmentEvent{Record: record, History: s.state.History.Snapshot()})

	if s.running {
		s.pending = s.sched.After(s.interval, s.tick)
	}
}
