package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-classroom/internal/models"
)

func TestMonitor_StartTicksImmediatelyThenOnInterval(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.StartMonitoring()
	require.Len(t, h.store.environment, 1)
	assert.Equal(t, 1, h.sched.Pending())

	h.sched.Advance(time.Second)
	assert.Len(t, h.store.environment, 1)

	h.sched.Advance(time.Second)
	assert.Len(t, h.store.environment, 2)
	assert.Equal(t, testStart.Add(2*time.Second), h.store.environment[1].Timestamp)
	assert.Equal(t, 1, h.sched.Pending())
}

func TestMonitor_StartWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.StartMonitoring()
	h.rt.StartMonitoring()

	assert.Len(t, h.store.environment, 1)
	assert.Equal(t, 1, h.sched.Pending())
}

func TestMonitor_StopCancelsPendingTick(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.StartMonitoring()
	h.rt.StopMonitoring()
	h.rt.StopMonitoring()

	assert.False(t, h.rt.Monitor.Running())
	assert.Equal(t, 0, h.sched.Pending())

	h.sched.Advance(time.Minute)
	assert.Len(t, h.store.environment, 1)
}

func TestMonitor_RestartDoesNotDoubleSchedule(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.StartMonitoring()
	h.rt.StopMonitoring()
	h.rt.StartMonitoring()
	assert.Equal(t, 1, h.sched.Pending())

	h.sched.Advance(2 * time.Second)
	assert.Len(t, h.store.environment, 3)
}

func TestMonitor_RecordGating(t *testing.T) {
	tests := []struct {
		name      string
		reading   models.Reading
		occupancy int
		want      models.ControlState
	}{
		{"hot and dark, empty room", models.Reading{Temperature: 27.5, Light: 300}, 0,
			models.ControlState{Climate: models.ClimateCooling, Light: models.LightHold}},
		{"hot and dark, occupied", models.Reading{Temperature: 27.5, Light: 300}, 3,
			models.ControlState{Climate: models.ClimateCooling, Light: models.LightOn}},
		{"cold and bright", models.Reading{Temperature: 21.0, Light: 520}, 1,
			models.ControlState{Climate: models.ClimateHeating, Light: models.LightDim}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "A-101")
			h.sensor.reading = tt.reading
			h.rt.state.Occupancy = tt.occupancy

			h.rt.StartMonitoring()

			require.Len(t, h.store.environment, 1)
			rec := h.store.environment[0]
			assert.Equal(t, "A-101", rec.Room)
			assert.Equal(t, tt.occupancy, rec.Occupancy)
			assert.Equal(t, tt.want, rec.Controls)
		})
	}
}

func TestMonitor_PersistFailureDoesNotStopLoop(t *testing.T) {
	h := newHarness(t, "A-101")
	h.store.err = errors.New("disk full")

	h.rt.StartMonitoring()
	h.sched.Advance(2 * time.Second)

	assert.Len(t, h.store.environment, 2)
	assert.True(t, h.rt.Monitor.Running())
	assert.Len(t, eventsOf[EnvironmentEvent](h.drain()), 2)
}

func TestMonitor_HistoryIsCapped(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.StartMonitoring()
	h.sched.Advance(50 * 2 * time.Second)

	events := eventsOf[EnvironmentEvent](h.drain())
	require.Len(t, events, 51)
	last := events[len(events)-1]
	assert.Len(t, last.History, 50)
	assert.Equal(t, testStart.Add(2*time.Second), last.History[0].Timestamp)
	assert.Equal(t, last.Record.Timestamp, last.History[49].Timestamp)
}

func TestMonitor_StatusEvents(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.StartMonitoring()
	h.rt.StopMonitoring()

	statuses := eventsOf[StatusEvent](h.drain())
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Monitoring)
	assert.False(t, statuses[1].Monitoring)
}

func TestRuntime_UnknownRoomUsesDefaultProfile(t *testing.T) {
	h := newHarness(t, "Z-999")
	h.sensor.reading = models.Reading{Temperature: 27, Light: 400}

	h.rt.StartMonitoring()

	require.Len(t, h.store.environment, 1)
	assert.Equal(t, "Z-999", h.store.environment[0].Room)
	assert.Equal(t, models.ClimateCooling, h.store.environment[0].Controls.Climate)
}

func TestRuntime_Toggle(t *testing.T) {
	h := newHarness(t, "A-101")

	h.rt.ToggleMonitoring()
	assert.True(t, h.rt.Monitor.Running())
	h.rt.ToggleMonitoring()
	assert.False(t, h.rt.Monitor.Running())

	h.rt.ToggleOccupancy()
	assert.True(t, h.rt.Occupancy.Running())

	h.rt.Shutdown()
	assert.False(t, h.rt.Occupancy.Running())
	assert.Equal(t, 0, h.sched.Pending())
}
