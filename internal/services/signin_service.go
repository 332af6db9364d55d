package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smart-classroom/internal/camera"
	"smart-classroom/internal/eventloop"
	"smart-classroom/internal/models"
	"smart-classroom/internal/records"
)

// SignInService turns QR scans into sign-in records and keeps the display
// list
type SignInService struct {
	ctx      context.Context
	sched    eventloop.Scheduler
	decoder  camera.QRDecoder
	store    records.Store
	loader   records.SignInLoader
	emit     func(Event)
	onStatus func()
	now      func() time.Time
	timeout  time.Duration
	logger   *slog.Logger

	scanning bool
	list     []models.SignRecord
}

// Scanning reports whether a QR scan is in progress
func (s *SignInService) Scanning() bool {
	return s.scanning
}

// Records returns a copy of the display list
func (s *SignInService) Records() []models.SignRecord {
	return append([]models.SignRecord(nil), s.list...)
}

// Load restores the display list from the sign-in log
func (s *SignInService) Load() {
	if s.loader == nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()

	loaded, err := s.loader.LoadSignIns(ctx)
	if err != nil {
		s.logger.Warn("failed to load sign-in log", "error", err)
		s.emit(NoticeEvent{Level: NoticeWarning, Message: fmt.Sprintf("Could not load sign-in log: %v", err)})
		return
	}

	s.list = loaded
	s.logger.Info("sign-in log loaded", "records", len(loaded))
	s.emitList()
}

// Scan decodes one QR code and records the name it carries
func (s *SignInService) Scan() {
	if s.scanning {
		s.emit(NoticeEvent{Level: NoticeWarning, Message: "QR scan already in progress"})
		return
	}
	s.scanning = true
	s.onStatus()
	s.emit(NoticeEvent{Level: NoticeInfo, Message: fmt.Sprintf("Show a QR code to the camera (%s)", s.timeout)})

	var data string
	s.sched.Offload(func() error {
		var err error
		data, err = s.decoder.DecodeQR(s.ctx, s.timeout)
		return err
	}, func(err error) {
		s.scanning = false
		s.onStatus()
		s.complete(data, err)
	})
}

func (s *SignInService) complete(data string, err error) {
	if err != nil {
		s.logger.Warn("QR scan failed", "error", err)
		s.emit(NoticeEvent{Level: NoticeError, Message: fmt.Sprintf("QR scan failed: %v", err)})
		return
	}

	name := strings.TrimSpace(data)
	if name == "" {
		s.logger.Info("no QR code decoded", "timeout", s.timeout)
		s.emit(NoticeEvent{Level: NoticeWarning, Message: "No valid QR code detected"})
		return
	}

	record := models.SignRecord{
		Timestamp: s.now(),
		Name:      name,
		Source:    models.SourceQR,
	}

	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	if err := s.store.AppendSignIn(ctx, record); err != nil {
		s.logger.Error("failed to persist sign-in", "name", name, "error", err)
		s.emit(NoticeEvent{Level: NoticeWarning, Message: fmt.Sprintf("Signed in %s but saving failed: %v", name, err)})
	} else {
		s.emit(NoticeEvent{Level: NoticeInfo, Message: fmt.Sprintf("%s signed in", name)})
	}

	s.list = append(s.list, record)
	s.logger.Info("signed in", "name", name)
	s.emitList()
}

// Clear deletes every persisted sign-in and empties the display list
func (s *SignInService) Clear() {
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()

	if err := s.store.ClearSignIns(ctx); err != nil {
		s.logger.Error("failed to clear sign-in records", "error", err)
		s.emit(NoticeEvent{Level: NoticeError, Message: fmt.Sprintf("Clearing sign-in records failed: %v", err)})
	} else {
		s.emit(NoticeEvent{Level: NoticeInfo, Message: "Sign-in records cleared"})
	}

	s.list = nil
	s.logger.Info("sign-in list cleared")
	s.emitList()
}

func (s *SignInService) emitList() {
	s.emit(SignInEvent{Records: s.Records()})
}
