package mix

import (
	"github.com/dygy/songforge/internal/song"
)

// Comb delay lengths in samples at 44.1 kHz, chosen mutually prime so
// the tails do not reinforce a common period
var combTunings = [4]int{1687, 1601, 2053, 2251}

var allpassTunings = [2]int{389, 307}

type combFilter struct {
	buf      []float64
	pos      int
	feedback float64
	damp     float64
	store    float64
}

func (c *combFilter) process(x float64) float64 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = x + c.store*c.feedback
	c.pos = (c.pos + 1) % len(c.buf)
	return out
}

type allpassFilter struct {
	buf []float64
	pos int
}

func (a *allpassFilter) process(x float64) float64 {
	buffered := a.buf[a.pos]
	out := buffered - x
	a.buf[a.pos] = x + buffered*0.5
	a.pos = (a.pos + 1) % len(a.buf)
	return out
}

// Reverb is a plate-style reverb: parallel damped combs into serial
// allpass diffusers, with an optional input predelay line.
type Reverb struct {
	combs     [4]*combFilter
	allpasses [2]*allpassFilter
	predelay  []float64
	prePos    int
	level     float64
}

// NewReverb builds the reverb bus from config
func NewReverb(cfg song.ReverbConfig, sampleRate int) *Reverb {
	scale := float64(sampleRate) / 44100.0
	feedback := 0.7 + 0.28*cfg.RoomSize

	r := &Reverb{level: cfg.Level}
	for i, tuning := range combTunings {
		n := int(float64(tuning) * scale)
		if n < 1 {
			n = 1
		}
		r.combs[i] = &combFilter{
			buf:      make([]float64, n),
			feedback: feedback,
			damp:     cfg.Damping,
		}
	}
	for i, tuning := range allpassTunings {
		n := int(float64(tuning) * scale)
		if n < 1 {
			n = 1
		}
		r.allpasses[i] = &allpassFilter{buf: make([]float64, n)}
	}
	if cfg.PredelayMs > 0 {
		n := int(cfg.PredelayMs / 1000 * float64(sampleRate))
		if n > 0 {
			r.predelay = make([]float64, n)
		}
	}
	return r
}

// Process renders the reverb tail for a mono send buffer. The output
// is tail-extended past the input so the decay is not truncated.
func (r *Reverb) Process(send []float64, tailSamples int) []float64 {
	out := make([]float64, len(send)+tailSamples)
	for i := range out {
		var x float64
		if i < len(send) {
			x = send[i]
		}
		if r.predelay != nil {
			delayed := r.predelay[r.prePos]
			r.predelay[r.prePos] = x
			r.prePos = (r.prePos + 1) % len(r.predelay)
			x = delayed
		}
		var sum float64
		for _, c := range r.combs {
			sum += c.process(x)
		}
		sum /= float64(len(r.combs))
		for _, a := range r.allpasses {
			sum = a.process(sum)
		}
		out[i] = sum * r.level
	}
	return out
}
