package eval

import (
	"math"

	"github.com/dygy/songforge/internal/mix"
	"github.com/dygy/songforge/internal/wav"
)

// Loudness carries the level statistics of a rendered master
type Loudness struct {
	PeakDBFS float64 `json:"peak_dbfs"`
	RMSDBFS  float64 `json:"rms_dbfs"`
	LUFS     float64 `json:"lufs"`
}

// MeasureLoudness computes peak, RMS and a simplified K-weighted,
// gated integrated loudness for a stereo buffer
func MeasureLoudness(s wav.Stereo, sampleRate int) Loudness {
	peak, sumSq := 0.0, 0.0
	n := s.Len()
	for i := 0; i < n; i++ {
		for _, v := range [2]float64{s.L[i], s.R[i]} {
			if a := math.Abs(v); a > peak {
				peak = a
			}
			sumSq += v * v
		}
	}
	out := Loudness{PeakDBFS: toDB(peak), LUFS: -70}
	if n > 0 {
		out.RMSDBFS = toDB(math.Sqrt(sumSq / float64(2*n)))
	}
	if lufs, ok := integratedLUFS(s, sampleRate); ok {
		out.LUFS = lufs
	}
	return out
}

// integratedLUFS applies the two-stage K-weighting (high shelf near
// 1681.97 Hz, high-pass at 38 Hz) then gates 400 ms windows at 100 ms
// hop with a -70 LUFS absolute gate
func integratedLUFS(s wav.Stereo, sampleRate int) (float64, bool) {
	n := s.Len()
	window := int(0.4 * float64(sampleRate))
	hop := int(0.1 * float64(sampleRate))
	if n < window || hop == 0 {
		return 0, false
	}

	l := kWeight(s.L, sampleRate)
	r := kWeight(s.R, sampleRate)

	var powers []float64
	for start := 0; start+window <= n; start += hop {
		sum := 0.0
		for i := start; i < start+window; i++ {
			sum += l[i]*l[i] + r[i]*r[i]
		}
		powers = append(powers, sum/float64(window))
	}

	sum, count := 0.0, 0
	for _, p := range powers {
		if blockLoudness(p) > -70 {
			sum += p
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return blockLoudness(sum / float64(count)), true
}

func kWeight(buf []float64, sampleRate int) []float64 {
	out := make([]float64, len(buf))
	copy(out, buf)
	shelf := mix.NewHighShelf(1681.97, 3.99984, 0.7071752369554196, sampleRate)
	hp := mix.NewHighPass(38.13547087602444, 0.5003270373238773, sampleRate)
	shelf.ProcessBuffer(out)
	hp.ProcessBuffer(out)
	return out
}

func blockLoudness(meanSquare float64) float64 {
	if meanSquare <= 0 {
		return -120
	}
	return -0.691 + 10*math.Log10(meanSquare)
}

func toDB(v float64) float64 {
	if v <= 0 {
		return -120
	}
	return 20 * math.Log10(v)
}
