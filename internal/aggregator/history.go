package aggregator

import "smart-classroom/internal/models"

// DefaultHistoryCapacity is the number of samples kept for the trend chart
const DefaultHistoryCapacity = 50

// History is a fixed-capacity ring buffer of samples, oldest evicted first.
// It is owned by the monitoring loop and not safe for concurrent use.
type History struct {
	samples []models.Sample
	start   int // index of the oldest sample
	size    int
}

// NewHistory creates an empty buffer. A non-positive capacity uses the default.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{samples: make([]models.Sample, capacity)}
}

// Push appends a sample, evicting the oldest one when full
func (h *History) Push(sample models.Sample) {
	capacity := len(h.samples)
	if h.size < capacity {
		h.samples[(h.start+h.size)%capacity] = sample
		h.size++
		return
	}
	h.samples[h.start] = sample
	h.start = (h.start + 1) % capacity
}

// Snapshot returns a copy of the samples in insertion order
func (h *History) Snapshot() []models.Sample {
	out := make([]models.Sample, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.samples[(h.start+i)%len(h.samples)]
	}
	return out
}
