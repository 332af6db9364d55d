package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-classroom/internal/models"
)

func TestBuiltin_DefaultRoom(t *testing.T) {
	store := Builtin()

	p := store.Lookup("A-101")
	assert.Equal(t, models.Range{Min: 22, Max: 26}, p.TemperatureRange)
	assert.Equal(t, models.Range{Min: 350, Max: 500}, p.LightRange)
	assert.Equal(t, DefaultRoom, store.DefaultRoom())
}

func TestLookup_UnknownRoomFallsBackToDefault(t *testing.T) {
	store := Builtin()

	assert.Equal(t, store.Lookup(store.DefaultRoom()), store.Lookup("Z-999"))
	assert.Equal(t, store.Lookup(store.DefaultRoom()), store.Lookup(""))
	assert.True(t, store.Has("A-101"))
	assert.False(t, store.Has("Z-999"))
}

func TestNewStore(t *testing.T) {
	profiles := map[string]models.RoomProfile{
		"A-101": {TemperatureRange: models.Range{Min: 22, Max: 26}, LightRange: models.Range{Min: 350, Max: 500}},
		"B-202": {TemperatureRange: models.Range{Min: 18, Max: 22}, LightRange: models.Range{Min: 300, Max: 450}},
	}

	store, err := NewStore(profiles, "A-101")
	require.NoError(t, err)
	assert.Equal(t, []string{"A-101", "B-202"}, store.Rooms())
	assert.Equal(t, 18.0, store.Lookup("B-202").TemperatureRange.Min)

	// later edits to the caller's map do not leak into the store
	delete(profiles, "B-202")
	assert.Equal(t, 18.0, store.Lookup("B-202").TemperatureRange.Min)
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore(map[string]models.RoomProfile{}, "A-101")
	assert.Error(t, err)

	_, err = NewStore(map[string]models.RoomProfile{
		"A-101": {TemperatureRange: models.Range{Min: 30, Max: 20}},
	}, "A-101")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.yaml")
	content := `default_room: B-202
rooms:
  A-101:
    temperature: [22, 26]
    light: [350, 500]
  B-202:
    temperature: [20, 24]
    light: [300, 450]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "B-202", store.DefaultRoom())
	assert.Equal(t, models.Range{Min: 20, Max: 24}, store.Lookup("unknown").TemperatureRange)
	assert.Equal(t, models.Range{Min: 350, Max: 500}, store.Lookup("A-101").LightRange)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"bad range":       "rooms:\n  A-101:\n    temperature: [22]\n    light: [350, 500]\n",
		"missing default": "default_room: C-1\nrooms:\n  A-101:\n    temperature: [22, 26]\n    light: [350, 500]\n",
		"inverted":        "rooms:\n  A-101:\n    temperature: [22, 26]\n    light: [500, 350]\n",
		"not yaml":        "rooms: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
