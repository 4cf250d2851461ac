package mix

import (
	"math"

	"github.com/dygy/songforge/internal/song"
)

// Saturate applies tanh soft clipping in place, normalized so low
// drive settings stay near unity gain. The normalization overshoots
// for input past full scale, so the result is clamped to [-1, 1].
func Saturate(l, r []float64, drive float64) {
	if drive <= 0 {
		return
	}
	norm := math.Tanh(drive)
	if norm == 0 {
		return
	}
	for i := range l {
		l[i] = clampUnit(math.Tanh(l[i]*drive) / norm)
		r[i] = clampUnit(math.Tanh(r[i]*drive) / norm)
	}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Compress runs the RMS-envelope compressor over a stereo pair in
// place. The sidechain is the mid signal; both channels get the same
// gain so the image does not wander.
func Compress(l, r []float64, cfg song.CompressorConfig, sampleRate int) {
	if len(l) == 0 {
		return
	}
	threshold := dbToLin(cfg.ThresholdDB)
	attackCoef := timeCoef(cfg.AttackMs, sampleRate)
	releaseCoef := timeCoef(cfg.ReleaseMs, sampleRate)
	lookahead := int(cfg.LookaheadMs / 1000 * float64(sampleRate))
	knee := cfg.KneeDB

	gains := make([]float64, len(l))
	env := 0.0
	for i := range l {
		mid := 0.5 * (l[i] + r[i])
		sq := mid * mid
		if sq > env {
			env = attackCoef*env + (1-attackCoef)*sq
		} else {
			env = releaseCoef*env + (1-releaseCoef)*sq
		}
		gains[i] = gainFor(math.Sqrt(env), threshold, cfg.Ratio, knee)
	}

	// Lookahead delays the dry signal so the gain curve computed at
	// sample i applies to the audio that caused it
	for i := len(l) - 1; i >= 0; i-- {
		src := i - lookahead
		var dl, dr float64
		if src >= 0 {
			dl, dr = l[src], r[src]
		}
		l[i] = dl * gains[i]
		r[i] = dr * gains[i]
	}
}

// gainFor computes the gain multiplier for one envelope value. The
// over/(over*ratio+eps) reduction curve is intentional; it tracks the
// reference renderer sample for sample.
func gainFor(level, threshold, ratio, kneeDB float64) float64 {
	if level <= 0 {
		return 1
	}
	levelDB := linToDB(level)
	thresholdDB := linToDB(threshold)

	if kneeDB > 0 {
		lower := thresholdDB - kneeDB/2
		if levelDB <= lower {
			return 1
		}
		if levelDB < thresholdDB+kneeDB/2 {
			// Inside the knee, blend toward full reduction
			t := (levelDB - lower) / kneeDB
			full := hardGain(level, threshold, ratio)
			return 1 + (full-1)*t*t
		}
		return hardGain(level, threshold, ratio)
	}
	if level <= threshold {
		return 1
	}
	return hardGain(level, threshold, ratio)
}

func hardGain(level, threshold, ratio float64) float64 {
	over := level - threshold
	if over <= 0 {
		return 1
	}
	const eps = 1e-9
	gr := over / (over*ratio + eps)
	return (threshold + over*gr) / level
}

// Limit applies the final true-peak limiter: upsample by linear
// interpolation, find the intersample peak, and if it exceeds the
// ceiling scale the whole buffer down
func Limit(l, r []float64, cfg song.LimiterConfig) {
	ceiling := dbToLin(cfg.CeilingDB)
	peak := truePeak(l, cfg.Oversample)
	if p := truePeak(r, cfg.Oversample); p > peak {
		peak = p
	}
	if peak <= ceiling || peak == 0 {
		return
	}
	scale := ceiling / peak
	for i := range l {
		l[i] *= scale
		r[i] *= scale
	}
}

// truePeak estimates the intersample peak by linear-interpolation
// oversampling
func truePeak(buf []float64, oversample int) float64 {
	if oversample < 1 {
		oversample = 1
	}
	peak := 0.0
	for i := 0; i < len(buf); i++ {
		cur := buf[i]
		next := cur
		if i+1 < len(buf) {
			next = buf[i+1]
		}
		for k := 0; k < oversample; k++ {
			frac := float64(k) / float64(oversample)
			v := math.Abs(cur + (next-cur)*frac)
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

func timeCoef(ms float64, sampleRate int) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1 / (ms / 1000 * float64(sampleRate)))
}

func dbToLin(db float64) float64 { return math.Pow(10, db/20) }

func linToDB(v float64) float64 {
	if v <= 0 {
		return -120
	}
	return 20 * math.Log10(v)
}
