package render

import (
	"math"

	"github.com/dygy/songforge/internal/stems"
)

// Oscillator shapes for the synth fallback
const (
	OscSine  = "sine"
	OscSaw   = "saw"
	OscPulse = "pulse"
)

// ADSR is an envelope in seconds (sustain is a level)
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// SynthPatch is the fallback voice used when an instrument has no
// sample assets
type SynthPatch struct {
	Osc        string
	Env        ADSR
	CutoffHz   float64 // base cutoff; velocity and key tracking scale it
	KeyTrack   float64 // 0..1, how much pitch raises the cutoff
	FilterPole int     // 2 ≈ 12 dB/oct, 4 ≈ 24 dB/oct
	Gain       float64
}

// DefaultPatches returns a usable synth patch per instrument
func DefaultPatches() map[string]SynthPatch {
	return map[string]SynthPatch{
		"drums": {Osc: OscPulse, Env: ADSR{0.001, 0.06, 0.0, 0.05}, CutoffHz: 7000, FilterPole: 2, Gain: 0.9},
		"bass":  {Osc: OscSaw, Env: ADSR{0.005, 0.08, 0.7, 0.08}, CutoffHz: 900, KeyTrack: 0.4, FilterPole: 4, Gain: 0.8},
		"keys":  {Osc: OscPulse, Env: ADSR{0.003, 0.12, 0.6, 0.15}, CutoffHz: 2400, KeyTrack: 0.3, FilterPole: 2, Gain: 0.6},
		"pads":  {Osc: OscSine, Env: ADSR{0.25, 0.3, 0.8, 0.6}, CutoffHz: 1800, KeyTrack: 0.2, FilterPole: 2, Gain: 0.5},
	}
}

// RenderSynth renders notes with an oscillator + ADSR + cascaded
// one-pole low-pass voice
func RenderSynth(notes []stems.Note, patch SynthPatch, sampleRate int) []float64 {
	out := make([]float64, bufferLen(notes, sampleRate))
	sr := float64(sampleRate)

	for _, n := range notes {
		freq := 440 * math.Pow(2, float64(n.Pitch-69)/12)
		vel := float64(n.Velocity) / 127.0

		env := patch.Env
		// Scale envelope segments down proportionally when they cannot
		// fit inside the note
		if total := env.Attack + env.Decay + env.Release; total > n.Dur && total > 0 {
			scale := n.Dur / total
			env.Attack *= scale
			env.Decay *= scale
			env.Release *= scale
		}

		noteSamples := int((n.Dur + env.Release) * sr)
		start := int(n.Start * sr)

		cutoff := patch.CutoffHz * (0.4 + 0.6*vel)
		if patch.KeyTrack > 0 {
			cutoff *= 1 + patch.KeyTrack*(float64(n.Pitch)-60)/24
		}
		if cutoff < 40 {
			cutoff = 40
		}
		if cutoff > sr*0.45 {
			cutoff = sr * 0.45
		}
		alpha := 1 - math.Exp(-2*math.Pi*cutoff/sr)
		poles := patch.FilterPole
		if poles != 4 {
			poles = 2
		}
		state := make([]float64, poles)

		phase := 0.0
		inc := freq / sr
		for i := 0; i < noteSamples; i++ {
			di := start + i
			if di >= len(out) {
				break
			}
			v := oscSample(patch.Osc, phase)
			phase += inc
			if phase >= 1 {
				phase -= 1
			}

			v *= envLevel(env, float64(i)/sr, n.Dur)

			for p := 0; p < poles; p++ {
				state[p] += alpha * (v - state[p])
				v = state[p]
			}

			out[di] += v * vel * patch.Gain
		}
	}

	softNormalize(out)
	return out
}

func oscSample(osc string, phase float64) float64 {
	switch osc {
	case OscSaw:
		return 2*phase - 1
	case OscPulse:
		if phase < 0.5 {
			return 1
		}
		return -1
	default: // sine
		return math.Sin(2 * math.Pi * phase)
	}
}

// envLevel evaluates the ADSR at time t for a note held noteDur seconds
func envLevel(env ADSR, t, noteDur float64) float64 {
	releaseStart := noteDur - env.Release
	if releaseStart < env.Attack+env.Decay {
		releaseStart = env.Attack + env.Decay
	}
	switch {
	case t < env.Attack:
		if env.Attack <= 0 {
			return 1
		}
		return t / env.Attack
	case t < env.Attack+env.Decay:
		if env.Decay <= 0 {
			return env.Sustain
		}
		frac := (t - env.Attack) / env.Decay
		return 1 - frac*(1-env.Sustain)
	case t < releaseStart:
		return env.Sustain
	default:
		if env.Release <= 0 {
			return 0
		}
		frac := (t - releaseStart) / env.Release
		if frac >= 1 {
			return 0
		}
		return env.Sustain * (1 - frac)
	}
}
