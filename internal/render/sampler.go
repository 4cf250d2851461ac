package render

import (
	"math"

	"github.com/dygy/songforge/internal/stems"
)

// RenderSampled renders notes by pitched sample playback: each note's
// region buffer is resampled by srcRate/dstRate * 2^((pitch-center)/12)
// with linear interpolation and summed at velocity-scaled gain.
func RenderSampled(notes []stems.Note, inst *Instrument, sampleRate int) ([]float64, error) {
	out := make([]float64, bufferLen(notes, sampleRate))

	for _, n := range notes {
		region, err := inst.RegionFor(n.Pitch)
		if err != nil {
			return nil, err
		}
		ratio := float64(region.Rate) / float64(sampleRate) *
			math.Pow(2, float64(n.Pitch-region.Center)/12)
		gain := float64(n.Velocity) / 127.0
		mixAt(out, region.Data, int(n.Start*float64(sampleRate)), ratio, gain,
			int(n.Dur*float64(sampleRate)))
	}

	softNormalize(out)
	return out, nil
}

// mixAt overlap-adds src into dst at offset, resampling by ratio. limit
// bounds the written length in output samples; 0 means the whole sample.
func mixAt(dst, src []float64, offset int, ratio, gain float64, limit int) {
	if ratio <= 0 || len(src) == 0 {
		return
	}
	outLen := int(float64(len(src)-1) / ratio)
	if limit > 0 && limit < outLen {
		// Short fade keeps truncation from clicking
		outLen = limit
	}
	for i := 0; i < outLen; i++ {
		di := offset + i
		if di < 0 {
			continue
		}
		if di >= len(dst) {
			break
		}
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		v := src[idx]*(1-frac) + src[idx+1]*frac
		if limit > 0 && outLen == limit && i >= outLen-64 {
			v *= float64(outLen-i) / 64.0
		}
		dst[di] += v * gain
	}
}

// bufferLen sizes a render buffer to the notes plus a short tail
func bufferLen(notes []stems.Note, sampleRate int) int {
	end := 0.0
	for _, n := range notes {
		if e := n.Start + n.Dur; e > end {
			end = e
		}
	}
	return int((end + 0.5) * float64(sampleRate))
}

// softNormalize scales the buffer down only when it clips
func softNormalize(buf []float64) {
	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 1.0 {
		scale := 0.99 / peak
		for i := range buf {
			buf[i] *= scale
		}
	}
}
