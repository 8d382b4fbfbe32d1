package execution

import (
	"math/rand"
	"time"

	"edgecast/models"
)

const (
	twapSlices   = 10
	twapDuration = time.Hour

	// maxSliceVariance keeps every jittered slice strictly positive so
	// the remainder always shrinks.
	maxSliceVariance = 0.9
)

// IcebergSlicer cuts a parent order into randomized visible child
// slices. Randomness comes from the injected source so tests and
// replays can seed it; trade simulation never uses this path.
type IcebergSlicer struct {
	rng *rand.Rand
}

// NewIcebergSlicer wraps a seeded random source.
func NewIcebergSlicer(rng *rand.Rand) *IcebergSlicer {
	return &IcebergSlicer{rng: rng}
}

// GenerateSlices cuts total into visible-sized slices jittered by
// ±variance, with the final slice clipped to the exact remainder, so the
// slices always sum to total.
func (s *IcebergSlicer) GenerateSlices(total, visible, variance float64) []models.OrderSlice {
	if total <= 0 || visible <= 0 {
		return nil
	}
	if visible > total {
		visible = total
	}
	if variance > maxSliceVariance {
		variance = maxSliceVariance
	}

	var slices []models.OrderSlice
	remaining := total
	for remaining > 0 {
		size := visible
		if variance > 0 {
			jitter := (s.rng.Float64()*2 - 1) * variance
			size = visible * (1 + jitter)
		}
		if size > remaining || remaining-size < visible*0.1 {
			size = remaining
		}
		slices = append(slices, models.OrderSlice{Size: size})
		remaining -= size
	}
	return slices
}

// GenerateTWAP splits the order evenly across 10 slices over one hour,
// jittering each slice's offset so the schedule is not clockwork.
func GenerateTWAP(rng *rand.Rand, total float64) ([]models.OrderSlice, time.Duration) {
	if total <= 0 {
		return nil, 0
	}

	interval := twapDuration / twapSlices
	size := total / twapSlices
	slices := make([]models.OrderSlice, twapSlices)
	for i := 0; i < twapSlices; i++ {
		offset := time.Duration(i) * interval
		if i > 0 {
			jitter := time.Duration((rng.Float64()*2 - 1) * float64(interval) * 0.2)
			offset += jitter
		}
		slices[i] = models.OrderSlice{Size: size, OffsetIn: offset}
	}
	return slices, twapDuration
}
