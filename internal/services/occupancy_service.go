package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smart-classroom/internal/camera"
	"smart-classroom/internal/eventloop"
	"smart-classroom/internal/models"
)

// Summary prefixes naming where a recognition result came from
const (
	sourcePolling = "auto"
	sourceManual  = "manual"
)

// OccupancyService polls the camera for the head count and runs
// user-requested recognitions
type OccupancyService struct {
	ctx          context.Context
	sched        eventloop.Scheduler
	state        *Classroom
	recognizer   camera.Recognizer
	emit         func(Event)
	onStatus     func()
	interval     time.Duration
	window       time.Duration
	manualWindow time.Duration
	logger       *slog.Logger

	running  bool
	inflight bool
	pending  eventloop.Handle

	manualInflight bool
}

// Running reports whether polling is enabled
func (s *OccupancyService) Running() bool {
	return s.running
}

// Recognizing reports whether a manual recognition is in progress
func (s *OccupancyService) Recognizing() bool {
	return s.manualInflight
}

// Start begins polling. When a poll is still in flight from an earlier
// run, scheduling resumes once it completes.
func (s *OccupancyService) Start() {
	if s.running {
		return
	}
	s.running = true
	s.logger.Info("occupancy polling started", "interval", s.interval, "window", s.window)
	s.onStatus()
	if !s.inflight {
		s.tick()
	}
}

// Stop cancels the pending poll. A result still in flight is discarded.
func (s *OccupancyService) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.cancelPending()
	s.logger.Info("occupancy polling stopped")
	s.onStatus()
}

func (s *OccupancyService) cancelPending() {
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
}

func (s *OccupancyService) tick() {
	s.pending = nil
	if s.inflight {
		return
	}
	s.inflight = true

	var result models.OccupancyResult
	s.sched.Offload(func() error {
		var err error
		result, err = s.recognizer.Recognize(s.ctx, s.window, true)
		return err
	}, func(err error) {
		s.inflight = false
		s.complete(result, err)
	})
}

func (s *OccupancyService) complete(result models.OccupancyResult, err error) {
	if !s.running {
		return
	}

	if err != nil {
		s.logger.Warn("occupancy poll failed, stopping poller", "error", err)
		s.running = false
		s.cancelPending()
		s.emit(NoticeEvent{Level: NoticeWarning, Message: fmt.Sprintf("Occupancy polling stopped: %v", err)})
		s.onStatus()
		return
	}

	summary := s.state.Apply(result, sourcePolling)
	s.logger.Info(summary, "occupancy", s.state.Occupancy)
	s.emit(s.occupancyEvent(summary, false))

	s.pending = s.sched.After(s.interval, s.tick)
}

// RecognizeNow runs one non-silent recognition over the manual window.
// Failures become notices and leave the poller alone.
func (s *OccupancyService) RecognizeNow() {
	if s.manualInflight {
		s.emit(NoticeEvent{Level: NoticeWarning, Message: "Recognition already in progress"})
		return
	}
	s.manualInflight = true
	s.logger.Info("manual recognition started", "window", s.manualWindow)
	s.onStatus()

	var result models.OccupancyResult
	s.sched.Offload(func() error {
		var err error
		result, err = s.recognizer.Recognize(s.ctx, s.manualWindow, false)
		return err
	}, func(err error) {
		s.manualInflight = false
		s.onStatus()

		if err != nil {
			s.logger.Warn("manual recognition failed", "error", err)
			s.emit(NoticeEvent{Level: NoticeError, Message: recognitionFailure(err)})
			return
		}

		summary := s.state.Apply(result, sourceManual)
		s.logger.Info(summary, "occupancy", s.state.Occupancy)
		s.emit(s.occupancyEvent(summary, true))
		s.emit(NoticeEvent{Level: NoticeInfo, Message: summary})
	})
}

func (s *OccupancyService) occupancyEvent(summary string, manual bool) OccupancyEvent {
	return OccupancyEvent{
		Count:   s.state.Occupancy,
		Names:   append([]string(nil), s.state.Recognized...),
		Summary: summary,
		Manual:  manual,
	}
}

func recognitionFailure(err error) string {
	switch {
	case errors.Is(err, camera.ErrMissingAsset):
		return fmt.Sprintf("Recognition files missing: %v", err)
	case errors.Is(err, camera.ErrCameraBusy):
		return "Camera is busy, try again shortly"
	case errors.Is(err, camera.ErrCameraUnavailable):
		return fmt.Sprintf("Camera unavailable: %v", err)
	default:
		return fmt.Sprintf("Recognition failed: %v", err)
	}
}
