// Package services owns the classroom state and the three activities that
// act on it: the monitoring loop, occupancy polling and QR sign-in.
//
// Every method on the services runs on the event loop. The presentation
// layer talks to them only through Runtime commands and the event channel.
package services

import (
	"context"
	"log/slog"
	"time"

	"smart-classroom/internal/aggregator"
	"smart-classroom/internal/camera"
	"smart-classroom/internal/eventloop"
	"smart-classroom/internal/models"
	"smart-classroom/internal/profile"
	"smart-classroom/internal/records"
)

// Options wires a Runtime
type Options struct {
	Room     string
	Profiles *profile.Store
	Sensor   ReadingSource
	Camera   camera.Source
	Store    records.Store
	// Loader restores the sign-in list at startup; optional
	Loader records.SignInLoader

	MonitorInterval   time.Duration
	OccupancyInterval time.Duration
	OccupancyWindow   time.Duration
	RecognizeWindow   time.Duration
	QRTimeout         time.Duration
	HistoryCapacity   int

	// Clock defaults to time.Now
	Clock func() time.Time
	// EventBuffer sizes the outgoing event channel
	EventBuffer int
	// EmitTimeout bounds how long an event send may block the loop
	EmitTimeout time.Duration
}

// Runtime is the owning context of a classroom session
type Runtime struct {
	sched  eventloop.Scheduler
	state  *Classroom
	events chan Event
	logger *slog.Logger

	emitTimeout time.Duration

	Monitor   *MonitorService
	Occupancy *OccupancyService
	SignIn    *SignInService
}

// NewRuntime builds the state and services. ctx bounds every camera call
// and store write.
func NewRuntime(ctx context.Context, sched eventloop.Scheduler, opts Options, logger *slog.Logger) *Runtime {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	if opts.EmitTimeout <= 0 {
		opts.EmitTimeout = 500 * time.Millisecond
	}
	if opts.Camera == nil {
		opts.Camera = camera.Disabled{}
	}
	if opts.Profiles == nil {
		opts.Profiles = profile.Builtin()
	}

	logger = logger.With("room", opts.Room)
	if !opts.Profiles.Has(opts.Room) {
		logger.Warn("room has no profile, using default", "default_room", opts.Profiles.DefaultRoom())
	}

	r := &Runtime{
		sched: sched,
		state: &Classroom{
			Room:    opts.Room,
			Profile: opts.Profiles.Lookup(opts.Room),
			History: aggregator.NewHistory(opts.HistoryCapacity),
		},
		events:      make(chan Event, opts.EventBuffer),
		logger:      logger.With("component", "runtime"),
		emitTimeout: opts.EmitTimeout,
	}

	r.Monitor = &MonitorService{
		ctx:      ctx,
		sched:    sched,
		state:    r.state,
		sensor:   opts.Sensor,
		store:    opts.Store,
		emit:     r.emit,
		onStatus: r.emitStatus,
		now:      opts.Clock,
		interval: opts.MonitorInterval,
		logger:   logger.With("component", "monitor"),
	}
	r.Occupancy = &OccupancyService{
		ctx:          ctx,
		sched:        sched,
		state:        r.state,
		recognizer:   opts.Camera,
		emit:         r.emit,
		onStatus:     r.emitStatus,
		interval:     opts.OccupancyInterval,
		window:       opts.OccupancyWindow,
		manualWindow: opts.RecognizeWindow,
		logger:       logger.With("component", "occupancy"),
	}
	r.SignIn = &SignInService{
		ctx:      ctx,
		sched:    sched,
		decoder:  opts.Camera,
		store:    opts.Store,
		loader:   opts.Loader,
		emit:     r.emit,
		onStatus: r.emitStatus,
		now:      opts.Clock,
		timeout:  opts.QRTimeout,
		logger:   logger.With("component", "signin"),
	}

	return r
}

// Events is the channel state changes are published on
func (r *Runtime) Events() <-chan Event {
	return r.events
}

// Room returns the room id
func (r *Runtime) Room() string {
	return r.state.Room
}

// Profile returns the bands the room is evaluated against. It is fixed
// for the lifetime of the runtime.
func (r *Runtime) Profile() models.RoomProfile {
	return r.state.Profile
}

// Init restores the sign-in list and announces the initial status
func (r *Runtime) Init() {
	r.sched.Post(func() {
		r.SignIn.Load()
		r.emitStatus()
	})
}

func (r *Runtime) StartMonitoring() { r.sched.Post(r.Monitor.Start) }
func (r *Runtime) StopMonitoring()  { r.sched.Post(r.Monitor.Stop) }
func (r *Runtime) StartOccupancy()  { r.sched.Post(r.Occupancy.Start) }
func (r *Runtime) StopOccupancy()   { r.sched.Post(r.Occupancy.Stop) }
func (r *Runtime) RecognizeNow()    { r.sched.Post(r.Occupancy.RecognizeNow) }
func (r *Runtime) ScanSignIn()      { r.sched.Post(r.SignIn.Scan) }
func (r *Runtime) ClearSignIns()    { r.sched.Post(r.SignIn.Clear) }

// ToggleMonitoring flips the monitoring loop
func (r *Runtime) ToggleMonitoring() {
	r.sched.Post(func() {
		if r.Monitor.Running() {
			r.Monitor.Stop()
		} else {
			r.Monitor.Start()
		}
	})
}

// ToggleOccupancy flips occupancy polling
func (r *Runtime) ToggleOccupancy() {
	r.sched.Post(func() {
		if r.Occupancy.Running() {
			r.Occupancy.Stop()
		} else {
			r.Occupancy.Start()
		}
	})
}

// Shutdown stops both loops
func (r *Runtime) Shutdown() {
	r.sched.Post(func() {
		r.Monitor.Stop()
		r.Occupancy.Stop()
		r.logger.Info("runtime shut down")
	})
}

func (r *Runtime) emitStatus() {
	r.emit(StatusEvent{
		Monitoring:  r.Monitor.Running(),
		Polling:     r.Occupancy.Running(),
		Recognizing: r.Occupancy.Recognizing(),
		Scanning:    r.SignIn.Scanning(),
	})
}

// emit publishes ev, dropping it when the consumer falls behind
func (r *Runtime) emit(ev Event) {
	select {
	case r.events <- ev:
	case <-time.After(r.emitTimeout):
		r.logger.Warn("event channel full, dropping event", "type", eventName(ev))
	}
}

func eventName(ev Event) string {
	switch ev.(type) {
	case EnvironmentEvent:
		return "environment"
	case OccupancyEvent:
		return "occupancy"
	case SignInEvent:
		return "signin"
	case NoticeEvent:
		return "notice"
	case StatusEvent:
		return "status"
	default:
		return "unknown"
	}
}
