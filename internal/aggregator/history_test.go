package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-classroom/internal/models"
)

func sampleAt(i int) models.Sample {
	return models.Sample{
		Timestamp:   time.Date(2026, 3, 1, 8, 0, i, 0, time.UTC),
		Temperature: float64(i),
		Light:       float64(100 + i),
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(0)

	assert.Empty(t, h.Snapshot())

	for i := 0; i < DefaultHistoryCapacity+1; i++ {
		h.Push(sampleAt(i))
	}
	assert.Len(t, h.Snapshot(), DefaultHistoryCapacity)
}

func TestHistory_KeepsInsertionOrder(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 3; i++ {
		h.Push(sampleAt(i))
	}

	snap := h.Snapshot()
	require.Len(t, snap, 3)
	for i, s := range snap {
		assert.Equal(t, float64(i), s.Temperature)
	}
}

func TestHistory_EvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory(DefaultHistoryCapacity)
	for i := 0; i < 51; i++ {
		h.Push(sampleAt(i))
		assert.LessOrEqual(t, len(h.Snapshot()), DefaultHistoryCapacity)
	}

	snap := h.Snapshot()
	require.Len(t, snap, 50)
	assert.Equal(t, 1.0, snap[0].Temperature, "first sample should have been evicted")
	for i, s := range snap {
		assert.Equal(t, float64(i+1), s.Temperature)
	}
}

func TestHistory_WrapsManyTimes(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 23; i++ {
		h.Push(sampleAt(i))
	}

	snap := h.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, []float64{19, 20, 21, 22}, []float64{snap[0].Temperature, snap[1].Temperature, snap[2].Temperature, snap[3].Temperature})
}

func TestHistory_SnapshotIsCopy(t *testing.T) {
	h := NewHistory(3)
	h.Push(sampleAt(1))

	snap := h.Snapshot()
	snap[0].Temperature = 99

	assert.Equal(t, 1.0, h.Snapshot()[0].Temperature)
}
