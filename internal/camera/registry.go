package camera

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"smart-classroom/internal/models"
)

// DefaultConfidenceThreshold is the distance below which a match is trusted
const DefaultConfidenceThreshold = 100.0

// Registry maps trained identity codes to display names
type Registry map[int]string

// LoadRegistry reads a whitespace-delimited "code name" table. Blank lines
// and lines starting with # are ignored.
func LoadRegistry(path string) (Registry, error) {
	if err := requireFile("identity registry", path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity registry: %w", err)
	}
	defer f.Close()

	registry := make(Registry)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("identity registry line %d: expected code and name", lineNo)
		}
		code, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("identity registry line %d: bad code %q: %w", lineNo, fields[0], err)
		}
		registry[code] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read identity registry: %w", err)
	}

	return registry, nil
}

// Resolve names a detection. Matches at or above the threshold, and codes
// missing from the registry, resolve to the unknown identity.
func (r Registry) Resolve(d models.Detection, threshold float64) string {
	if d.Confidence >= threshold {
		return models.UnknownIdentity
	}
	if name, ok := r[d.Code]; ok {
		return name
	}
	return models.UnknownIdentity
}

// Names returns every registered name sorted
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for _, name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collect folds detections, in the order they were seen, into an
// occupancy result
func (r Registry) Collect(detections []models.Detection, threshold float64) models.OccupancyResult {
	seen := make(map[string]struct{})
	var result models.OccupancyResult

	for _, d := range detections {
		identity := r.Resolve(d, threshold)
		result.Identity = identity
		if identity != models.UnknownIdentity {
			seen[identity] = struct{}{}
		}
	}

	result.Recognized = make([]string, 0, len(seen))
	for name := range seen {
		result.Recognized = append(result.Recognized, name)
	}
	sort.Strings(result.Recognized)
	return result
}
