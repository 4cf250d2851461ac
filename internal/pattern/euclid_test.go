package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countOnsets(p []bool) int {
	n := 0
	for _, on := range p {
		if on {
			n++
		}
	}
	return n
}

func TestEuclidean_PulseCount(t *testing.T) {
	for steps := 1; steps <= 16; steps++ {
		for pulses := 1; pulses <= steps; pulses++ {
			got := Euclidean(pulses, steps)
			assert.Len(t, got, steps)
			assert.Equal(t, pulses, countOnsets(got), "pulses=%d steps=%d", pulses, steps)
		}
	}
}

func TestEuclidean_EvenSpread(t *testing.T) {
	// gaps between onsets differ by at most one step
	p := Euclidean(5, 16)
	var onsets []int
	for i, on := range p {
		if on {
			onsets = append(onsets, i)
		}
	}
	minGap, maxGap := 16, 0
	for i := 0; i < len(onsets); i++ {
		next := onsets[(i+1)%len(onsets)]
		gap := next - onsets[i]
		if gap <= 0 {
			gap += 16
		}
		if gap < minGap {
			minGap = gap
		}
		if gap > maxGap {
			maxGap = gap
		}
	}
	assert.LessOrEqual(t, maxGap-minGap, 1)
}

func TestEuclidean_Degenerate(t *testing.T) {
	assert.Equal(t, 0, countOnsets(Euclidean(0, 8)))
	assert.Equal(t, 0, countOnsets(Euclidean(-3, 8)))
	assert.Empty(t, Euclidean(4, 0))
	// pulses above steps clamp to all onsets
	assert.Equal(t, 8, countOnsets(Euclidean(12, 8)))
}

func TestDensityPulses(t *testing.T) {
	assert.Equal(t, 1, DensityPulses(0, 16))
	assert.Equal(t, 16, DensityPulses(1, 16))
	assert.Equal(t, 0, DensityPulses(0.5, 0))

	mid := DensityPulses(0.5, 16)
	assert.GreaterOrEqual(t, mid, 8)
	assert.LessOrEqual(t, mid, 9)
}
