package mix

import (
	"math"
	"sort"

	sferr "github.com/dygy/songforge/internal/errors"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/wav"
)

// reverbTailSec is how long the reverb decay rings past the send
// signal; the wet buffer is then folded back within the track length
const reverbTailSec = 1.5

// Mix folds per-instrument mono buffers down to a stereo master through
// the full channel-strip and bus chain: per-track EQ, chorus, gain and
// constant-power pan, a shared reverb bus fed by track sends, then
// headroom trim, saturation, compression and true-peak limiting on the
// master.
func Mix(tracks map[string][]float64, sampleRate int, cfg song.MixConfig) (wav.Stereo, error) {
	if len(tracks) == 0 {
		return wav.Stereo{}, sferr.NewStageError("mix", "", sferr.ErrEmptyBuffer)
	}
	length := 0
	for _, buf := range tracks {
		if len(buf) > length {
			length = len(buf)
		}
	}
	if length == 0 {
		return wav.Stereo{}, sferr.NewStageError("mix", "", sferr.ErrEmptyBuffer)
	}

	left := make([]float64, length)
	right := make([]float64, length)
	sends := make([]float64, length)

	// Fixed summation order: float addition is not associative, so map
	// iteration order would leak into the master
	names := make([]string, 0, len(tracks))
	for name := range tracks {
		names = append(names, name)
	}
	sort.Strings(names)

	prePeak := 0.0
	for _, name := range names {
		buf := tracks[name]
		tc := cfg.Tracks[name]

		work := make([]float64, len(buf))
		copy(work, buf)

		if tc.EQ != nil && tc.EQ.Type != "" {
			eq, err := NewEQ(*tc.EQ, sampleRate)
			if err != nil {
				return wav.Stereo{}, sferr.NewStageError("mix", name, err)
			}
			eq.ProcessBuffer(work)
		}
		if tc.Chorus != nil {
			NewChorus(*tc.Chorus, sampleRate).ProcessBuffer(work)
		}

		gain := dbToLin(tc.GainDB)
		gl, gr := panGains(tc.Pan)
		for i, v := range work {
			s := v * gain
			left[i] += s * gl
			right[i] += s * gr
			if tc.ReverbSend > 0 {
				sends[i] += s * tc.ReverbSend
			}
			if a := math.Abs(s); a > prePeak {
				prePeak = a
			}
		}
	}

	if cfg.Reverb.Level > 0 {
		tail := int(reverbTailSec * float64(sampleRate))
		wet := NewReverb(cfg.Reverb, sampleRate).Process(sends, tail)
		for i := 0; i < length; i++ {
			left[i] += wet[i]
			right[i] += wet[i]
		}
	}

	applyMaster(left, right, prePeak, cfg.Master, sampleRate)
	return wav.Stereo{L: left, R: right}, nil
}

func applyMaster(l, r []float64, prePeak float64, cfg song.MasterConfig, sampleRate int) {
	if cfg.HeadroomDB > 0 && prePeak > 0 {
		// Trim from the pre-sum peak estimate so the downstream
		// stages see a predictable level
		target := dbToLin(-cfg.HeadroomDB)
		if prePeak > target {
			trim := target / prePeak
			for i := range l {
				l[i] *= trim
				r[i] *= trim
			}
		}
	}
	if cfg.Saturation != nil {
		Saturate(l, r, cfg.Saturation.Drive)
	}
	if cfg.Compressor != nil {
		Compress(l, r, *cfg.Compressor, sampleRate)
	}
	Limit(l, r, cfg.Limiter)
}

// panGains maps pan in [-1, 1] to constant-power channel gains
func panGains(pan float64) (float64, float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}
