package pattern

import "math"

// Euclidean distributes pulses as evenly as possible across steps using
// the bucket method: accumulate pulses per step, emit an onset and
// subtract steps whenever the bucket fills. For 0 < pulses <= steps the
// result has exactly pulses onsets; pulses <= 0 yields all rests.
func Euclidean(pulses, steps int) []bool {
	out := make([]bool, steps)
	if pulses <= 0 || steps <= 0 {
		return out
	}
	if pulses > steps {
		pulses = steps
	}
	bucket := 0
	for i := 0; i < steps; i++ {
		bucket += pulses
		if bucket >= steps {
			bucket -= steps
			out[i] = true
		}
	}
	return out
}

// DensityPulses maps a density in [0,1] to a pulse count over steps,
// clamped to [1, steps]
func DensityPulses(density float64, steps int) int {
	if steps <= 0 {
		return 0
	}
	p := int(math.Round(1 + density*float64(steps-1)))
	if p < 1 {
		p = 1
	}
	if p > steps {
		p = steps
	}
	return p
}
