package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"smart-classroom/internal/eventloop"
	"smart-classroom/internal/models"
)

var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeSensor struct {
	reading models.Reading
}

func (f *fakeSensor) Generate() models.Reading {
	return f.reading
}

type fakeStore struct {
	environment []models.EnvironmentRecord
	signIns     []models.SignRecord
	clears      int
	err         error
	loaded      []models.SignRecord
	loadErr     error
}

func (f *fakeStore) AppendEnvironment(_ context.Context, rec models.EnvironmentRecord) error {
	f.environment = append(f.environment, rec)
	return f.err
}

func (f *fakeStore) AppendSignIn(_ context.Context, rec models.SignRecord) error {
	f.signIns = append(f.signIns, rec)
	return f.err
}

func (f *fakeStore) ClearSignIns(context.Context) error {
	f.clears++
	return f.err
}

func (f *fakeStore) LoadSignIns(context.Context) ([]models.SignRecord, error) {
	return f.loaded, f.loadErr
}

type recognizeCall struct {
	window time.Duration
	silent bool
}

type fakeCamera struct {
	calls   []recognizeCall
	result  models.OccupancyResult
	err     error
	qrCalls []time.Duration
	qrData  string
	qrErr   error
}

func (f *fakeCamera) Recognize(_ context.Context, window time.Duration, silent bool) (models.OccupancyResult, error) {
	f.calls = append(f.calls, recognizeCall{window: window, silent: silent})
	return f.result, f.err
}

func (f *fakeCamera) DecodeQR(_ context.Context, timeout time.Duration) (string, error) {
	f.qrCalls = append(f.qrCalls, timeout)
	return f.qrData, f.qrErr
}

type harness struct {
	rt     *Runtime
	sched  *eventloop.Manual
	sensor *fakeSensor
	store  *fakeStore
	camera *fakeCamera
}

func newHarness(t *testing.T, room string) *harness {
	t.Helper()
	h := &harness{
		sched:  eventloop.NewManual(testStart),
		sensor: &fakeSensor{reading: models.Reading{Temperature: 24, Light: 400}},
		store:  &fakeStore{},
		camera: &fakeCamera{},
	}
	h.rt = NewRuntime(context.Background(), h.sched, Options{
		Room:              room,
		Sensor:            h.sensor,
		Camera:            h.camera,
		Store:             h.store,
		Loader:            h.store,
		MonitorInterval:   2 * time.Second,
		OccupancyInterval: 2 * time.Second,
		OccupancyWindow:   time.Second,
		RecognizeWindow:   10 * time.Second,
		QRTimeout:         8 * time.Second,
		HistoryCapacity:   50,
		Clock:             h.sched.Now,
		EventBuffer:       4096,
		EmitTimeout:       time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h
}

// drain returns every event emitted so far
func (h *harness) drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-h.rt.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventsOf[T Event](events []Event) []T {
	var out []T
	for _, ev := range events {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func lastNotice(t *testing.T, events []Event) NoticeEvent {
	t.Helper()
	notices := eventsOf[NoticeEvent](events)
	if len(notices) == 0 {
		t.Fatalf("no notice emitted")
	}
	return notices[len(notices)-1]
}
