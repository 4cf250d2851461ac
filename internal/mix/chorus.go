package mix

import (
	"math"

	"github.com/dygy/songforge/internal/song"
)

// Chorus is a two-voice modulated-delay effect. The second voice's LFO
// runs 180 degrees out of phase with the first so the voices never
// collapse into a single delay tap.
type Chorus struct {
	depth  float64 // samples
	rate   float64 // radians per sample
	mix    float64
	buf    []float64
	write  int
	phase  float64
	center float64
}

// NewChorus builds a chorus from config. Zero mix returns nil.
func NewChorus(cfg song.ChorusConfig, sampleRate int) *Chorus {
	if cfg.Mix <= 0 || cfg.DepthMs <= 0 {
		return nil
	}
	depth := cfg.DepthMs / 1000 * float64(sampleRate)
	center := depth + 2
	size := int(center+depth) + 4
	return &Chorus{
		depth:  depth,
		rate:   2 * math.Pi * cfg.RateHz / float64(sampleRate),
		mix:    cfg.Mix,
		buf:    make([]float64, size),
		center: center,
	}
}

// ProcessBuffer applies the chorus in place
func (c *Chorus) ProcessBuffer(buf []float64) {
	if c == nil {
		return
	}
	for i, x := range buf {
		c.buf[c.write] = x

		d1 := c.center + c.depth*math.Sin(c.phase)
		d2 := c.center + c.depth*math.Sin(c.phase+math.Pi)
		wet := 0.5 * (c.tap(d1) + c.tap(d2))

		buf[i] = x*(1-c.mix) + wet*c.mix

		c.write = (c.write + 1) % len(c.buf)
		c.phase += c.rate
		if c.phase > 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
	}
}

// tap reads the delay line delay samples behind the write head with
// linear interpolation
func (c *Chorus) tap(delay float64) float64 {
	n := len(c.buf)
	pos := float64(c.write) - delay
	for pos < 0 {
		pos += float64(n)
	}
	i0 := int(pos) % n
	i1 := (i0 + 1) % n
	frac := pos - math.Floor(pos)
	return c.buf[i0]*(1-frac) + c.buf[i1]*frac
}
