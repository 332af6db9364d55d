package profile

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"smart-classroom/internal/models"
)

// DefaultRoom is the room whose profile backs unknown room ids
const DefaultRoom = "A-101"

// Store maps room ids to their acceptable temperature and light bands.
// It is immutable after construction.
type Store struct {
	profiles    map[string]models.RoomProfile
	defaultRoom string
}

// NewStore creates a store; defaultRoom must be one of the registered rooms
func NewStore(profiles map[string]models.RoomProfile, defaultRoom string) (*Store, error) {
	if _, ok := profiles[defaultRoom]; !ok {
		return nil, fmt.Errorf("default room %q has no profile", defaultRoom)
	}

	copied := make(map[string]models.RoomProfile, len(profiles))
	for id, p := range profiles {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("room %q: %w", id, err)
		}
		copied[id] = p
	}

	return &Store{profiles: copied, defaultRoom: defaultRoom}, nil
}

// Builtin returns the compiled-in room table
func Builtin() *Store {
	return &Store{
		profiles: map[string]models.RoomProfile{
			DefaultRoom: {
				TemperatureRange: models.Range{Min: 22, Max: 26},
				LightRange:       models.Range{Min: 350, Max: 500},
			},
		},
		defaultRoom: DefaultRoom,
	}
}

// Lookup returns the profile registered for roomID, or the default room's
// profile when roomID is unknown
func (s *Store) Lookup(roomID string) models.RoomProfile {
	if p, ok := s.profiles[roomID]; ok {
		return p
	}
	return s.profiles[s.defaultRoom]
}

// Has reports whether roomID has its own profile
func (s *Store) Has(roomID string) bool {
	_, ok := s.profiles[roomID]
	return ok
}

// DefaultRoom returns the fallback room id
func (s *Store) DefaultRoom() string {
	return s.defaultRoom
}

// Rooms returns the registered room ids in sorted order
func (s *Store) Rooms() []string {
	rooms := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}

type fileFormat struct {
	DefaultRoom string              `yaml:"default_room"`
	Rooms       map[string]fileRoom `yaml:"rooms"`
}

type fileRoom struct {
	Temperature []float64 `yaml:"temperature"`
	Light       []float64 `yaml:"light"`
}

// LoadFile reads room profiles from a YAML file:
//
//	default_room: A-101
//	rooms:
//	  A-101:
//	    temperature: [22, 26]
//	    light: [350, 500]
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read room profiles: %w", err)
	}

	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse room profiles: %w", err)
	}

	if file.DefaultRoom == "" {
		file.DefaultRoom = DefaultRoom
	}

	profiles := make(map[string]models.RoomProfile, len(file.Rooms))
	for id, room := range file.Rooms {
		temp, err := toRange(room.Temperature)
		if err != nil {
			return nil, fmt.Errorf("room %q temperature: %w", id, err)
		}
		light, err := toRange(room.Light)
		if err != nil {
			return nil, fmt.Errorf("room %q light: %w", id, err)
		}
		profiles[id] = models.RoomProfile{TemperatureRange: temp, LightRange: light}
	}

	return NewStore(profiles, file.DefaultRoom)
}

func toRange(bounds []float64) (models.Range, error) {
	if len(bounds) != 2 {
		return models.Range{}, fmt.Errorf("expected [min, max], got %d values", len(bounds))
	}
	return models.Range{Min: bounds[0], Max: bounds[1]}, nil
}

func validate(p models.RoomProfile) error {
	if p.TemperatureRange.Min > p.TemperatureRange.Max {
		return fmt.Errorf("temperature min %.1f exceeds max %.1f", p.TemperatureRange.Min, p.TemperatureRange.Max)
	}
	if p.LightRange.Min > p.LightRange.Max {
		return fmt.Errorf("light min %.0f exceeds max %.0f", p.LightRange.Min, p.LightRange.Max)
	}
	return nil
}
