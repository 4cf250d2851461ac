package mix

import (
	"fmt"
	"math"

	"github.com/dygy/songforge/internal/song"
)

// Biquad is a two-pole/two-zero filter in direct form I. Coefficients
// follow the RBJ cookbook formulas.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// NewEQ builds a biquad for one EQ band config
func NewEQ(cfg song.EQConfig, sampleRate int) (*Biquad, error) {
	switch cfg.Type {
	case "peaking":
		return NewPeaking(cfg.FreqHz, cfg.GainDB, cfg.Q, sampleRate), nil
	case "low_shelf":
		return NewLowShelf(cfg.FreqHz, cfg.GainDB, cfg.Q, sampleRate), nil
	case "high_shelf":
		return NewHighShelf(cfg.FreqHz, cfg.GainDB, cfg.Q, sampleRate), nil
	default:
		return nil, fmt.Errorf("unknown eq type %q", cfg.Type)
	}
}

// NewPeaking builds a peaking EQ biquad
func NewPeaking(freqHz, gainDB, q float64, sampleRate int) *Biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosW := math.Cos(w0)

	b0 := 1 + alpha*a
	b1 := -2 * cosW
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW
	a2 := 1 - alpha/a
	return normalized(b0, b1, b2, a0, a1, a2)
}

// NewLowShelf builds a low-shelf biquad. q acts as the shelf slope.
func NewLowShelf(freqHz, gainDB, q float64, sampleRate int) *Biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosW := math.Cos(w0)
	sq := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cosW + sq)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW)
	b2 := a * ((a + 1) - (a-1)*cosW - sq)
	a0 := (a + 1) + (a-1)*cosW + sq
	a1 := -2 * ((a - 1) + (a+1)*cosW)
	a2 := (a + 1) + (a-1)*cosW - sq
	return normalized(b0, b1, b2, a0, a1, a2)
}

// NewHighShelf builds a high-shelf biquad
func NewHighShelf(freqHz, gainDB, q float64, sampleRate int) *Biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freqHz / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosW := math.Cos(w0)
	sq := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cosW + sq)
	b1 := -2 * a * ((a - 1) + (a+1)*cosW)
	b2 := a * ((a + 1) + (a-1)*cosW - sq)
	a0 := (a + 1) - (a-1)*cosW + sq
	a1 := 2 * ((a - 1) - (a+1)*cosW)
	a2 := (a + 1) - (a-1)*cosW - sq
	return normalized(b0, b1, b2, a0, a1, a2)
}

// NewHighPass builds a Butterworth-style high-pass biquad
func NewHighPass(freqHz, q float64, sampleRate int) *Biquad {
	w0 := 2 * math.Pi * freqHz / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosW := math.Cos(w0)

	b0 := (1 + cosW) / 2
	b1 := -(1 + cosW)
	b2 := (1 + cosW) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW
	a2 := 1 - alpha
	return normalized(b0, b1, b2, a0, a1, a2)
}

func normalized(b0, b1, b2, a0, a1, a2 float64) *Biquad {
	return &Biquad{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

// Process filters one sample
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// ProcessBuffer filters a buffer in place
func (f *Biquad) ProcessBuffer(buf []float64) {
	for i, x := range buf {
		buf[i] = f.Process(x)
	}
}
