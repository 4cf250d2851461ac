package mix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/songforge/internal/song"
)

const testRate = 44100

func sine(freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.25 * math.Sin(2*math.Pi*freq*float64(i)/float64(testRate))
	}
	return out
}

// goertzel measures signal magnitude at one frequency
func goertzel(buf []float64, freq float64) float64 {
	w := 2 * math.Pi * freq / float64(testRate)
	coeff := 2 * math.Cos(w)
	var s0, s1, s2 float64
	for _, x := range buf {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	return math.Sqrt(math.Abs(power)) / float64(len(buf))
}

func TestPeakingEQ_BoostsBand(t *testing.T) {
	in := sine(1000, testRate)
	boosted := make([]float64, len(in))
	copy(boosted, in)

	eq := NewPeaking(1000, 6, 1, testRate)
	eq.ProcessBuffer(boosted)

	// skip the filter's settling region before measuring
	ratio := goertzel(boosted[4410:], 1000) / goertzel(in[4410:], 1000)
	assert.GreaterOrEqual(t, ratio, 1.5)
}

func TestPeakingEQ_LeavesDistantBandsAlone(t *testing.T) {
	in := sine(100, testRate)
	out := make([]float64, len(in))
	copy(out, in)

	eq := NewPeaking(1000, 6, 1, testRate)
	eq.ProcessBuffer(out)

	ratio := goertzel(out[4410:], 100) / goertzel(in[4410:], 100)
	assert.InDelta(t, 1.0, ratio, 0.15)
}

func TestNewEQ_UnknownType(t *testing.T) {
	_, err := NewEQ(song.EQConfig{Type: "notch", FreqHz: 1000, Q: 1}, testRate)
	assert.Error(t, err)
}

func TestShelves(t *testing.T) {
	low := sine(80, testRate)
	ls := NewLowShelf(200, 6, 0.707, testRate)
	boosted := make([]float64, len(low))
	copy(boosted, low)
	ls.ProcessBuffer(boosted)
	assert.Greater(t, goertzel(boosted[4410:], 80), goertzel(low[4410:], 80))

	high := sine(8000, testRate)
	hs := NewHighShelf(4000, -6, 0.707, testRate)
	cut := make([]float64, len(high))
	copy(cut, high)
	hs.ProcessBuffer(cut)
	assert.Less(t, goertzel(cut[4410:], 8000), goertzel(high[4410:], 8000))
}

func TestLimiter_CeilingGuarantee(t *testing.T) {
	cfg := song.LimiterConfig{CeilingDB: -0.3, Oversample: 4}
	ceiling := math.Pow(10, -0.3/20)

	for _, gain := range []float64{0.5, 1, 2, 8} {
		l := make([]float64, testRate/10)
		r := make([]float64, testRate/10)
		for i := range l {
			v := gain * math.Sin(2*math.Pi*997*float64(i)/float64(testRate))
			l[i], r[i] = v, v
		}
		Limit(l, r, cfg)
		for i := range l {
			require.LessOrEqual(t, math.Abs(l[i]), ceiling+1e-9, "gain %f", gain)
			require.LessOrEqual(t, math.Abs(r[i]), ceiling+1e-9, "gain %f", gain)
		}
	}
}

func TestLimiter_LeavesQuietAudioAlone(t *testing.T) {
	l := sine(440, 4410)
	r := sine(440, 4410)
	want := make([]float64, len(l))
	copy(want, l)

	Limit(l, r, song.LimiterConfig{CeilingDB: -0.3, Oversample: 4})
	assert.Equal(t, want, l)
}

func TestCompressor_ReducesLoudPassages(t *testing.T) {
	cfg := song.CompressorConfig{
		ThresholdDB: -20, Ratio: 4, AttackMs: 1, ReleaseMs: 50,
	}
	n := testRate / 2
	l := make([]float64, n)
	r := make([]float64, n)
	for i := range l {
		v := 0.9 * math.Sin(2*math.Pi*440*float64(i)/float64(testRate))
		l[i], r[i] = v, v
	}
	peakBefore := 0.9
	Compress(l, r, cfg, testRate)

	peakAfter := 0.0
	for _, v := range l[n/2:] {
		if a := math.Abs(v); a > peakAfter {
			peakAfter = a
		}
	}
	assert.Less(t, peakAfter, peakBefore)
}

func TestSaturate_NearUnityAtLowDrive(t *testing.T) {
	l := []float64{0.1, -0.1, 0.2}
	r := []float64{0.1, -0.1, 0.2}
	Saturate(l, r, 0.2)
	assert.InDelta(t, 0.1, l[0], 0.01)

	// hot input stays bounded at full scale even though the
	// normalization alone would overshoot
	l2 := []float64{3, -3, 1.2}
	r2 := []float64{3, -3, 1.2}
	Saturate(l2, r2, 2)
	for i, v := range l2 {
		assert.LessOrEqual(t, math.Abs(v), 1.0, "sample %d", i)
		assert.LessOrEqual(t, math.Abs(r2[i]), 1.0, "sample %d", i)
	}
}

func TestMix_StereoLengthAndBounds(t *testing.T) {
	tracks := map[string][]float64{
		song.InstrDrums: sine(200, testRate),
		song.InstrBass:  sine(80, testRate),
		song.InstrKeys:  sine(600, testRate),
		song.InstrPads:  sine(400, testRate),
	}
	cfg := song.DefaultMixConfig()

	out, err := Mix(tracks, testRate, cfg)
	require.NoError(t, err)
	assert.Equal(t, testRate, out.Len())

	ceiling := math.Pow(10, cfg.Master.Limiter.CeilingDB/20)
	for i := 0; i < out.Len(); i++ {
		require.LessOrEqual(t, math.Abs(out.L[i]), ceiling+1e-9)
		require.LessOrEqual(t, math.Abs(out.R[i]), ceiling+1e-9)
	}
}

func TestMix_EmptyInput(t *testing.T) {
	_, err := Mix(nil, testRate, song.DefaultMixConfig())
	assert.Error(t, err)

	_, err = Mix(map[string][]float64{"drums": {}}, testRate, song.DefaultMixConfig())
	assert.Error(t, err)
}

func TestMix_Deterministic(t *testing.T) {
	// Four tracks so the summation order matters: map iteration order
	// varies between runs, and float addition is not associative
	tracks := map[string][]float64{
		song.InstrDrums: sine(200, 4410),
		song.InstrBass:  sine(80, 4410),
		song.InstrKeys:  sine(500, 4410),
		song.InstrPads:  sine(300, 4410),
	}
	cfg := song.DefaultMixConfig()

	first, err := Mix(tracks, testRate, cfg)
	require.NoError(t, err)
	for run := 0; run < 8; run++ {
		next, err := Mix(tracks, testRate, cfg)
		require.NoError(t, err)
		require.Equal(t, first, next, "run %d", run)
	}
}

func TestPanGains_ConstantPower(t *testing.T) {
	for _, pan := range []float64{-1, -0.5, 0, 0.5, 1} {
		l, r := panGains(pan)
		assert.InDelta(t, 1, l*l+r*r, 1e-9, "pan %f", pan)
	}
	l, r := panGains(0)
	assert.InDelta(t, l, r, 1e-9)
	l, _ = panGains(1)
	assert.InDelta(t, 0, l, 1e-9)
}

func TestReverb_ProducesTail(t *testing.T) {
	cfg := song.ReverbConfig{RoomSize: 0.7, Damping: 0.4, PredelayMs: 10, Level: 0.8}
	rv := NewReverb(cfg, testRate)

	impulse := make([]float64, testRate/10)
	impulse[0] = 1
	out := rv.Process(impulse, testRate/2)
	require.Len(t, out, len(impulse)+testRate/2)

	energy := 0.0
	for _, v := range out[len(impulse):] {
		energy += v * v
	}
	assert.Greater(t, energy, 0.0, "reverb tail should ring past the input")
}

func TestChorus_MixBounds(t *testing.T) {
	in := sine(440, 4410)
	want := make([]float64, len(in))
	copy(want, in)

	c := NewChorus(song.ChorusConfig{DepthMs: 6, RateHz: 0.8, Mix: 0.4}, testRate)
	require.NotNil(t, c)
	c.ProcessBuffer(in)
	assert.NotEqual(t, want, in)

	// zero-mix chorus is a no-op
	assert.Nil(t, NewChorus(song.ChorusConfig{DepthMs: 6, RateHz: 0.8, Mix: 0}, testRate))
}
