package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
	"github.com/dygy/songforge/internal/theory"
	"github.com/dygy/songforge/internal/wav"
)

func evalSpec(t *testing.T) *song.Spec {
	t.Helper()
	s := &song.Spec{
		TempoBPM: 120,
		Meter:    "4/4",
		Sections: []song.Section{{Name: "verse", LengthBars: 2}},
		Harmony:  map[string][]string{"verse": {"C", "F"}},
		Cadences: []song.Cadence{{Bar: 1, Type: "authentic"}},
	}
	s.ApplyDefaults()
	require.NoError(t, s.Validate())
	return s
}

func baseHashInput(t *testing.T) HashInput {
	t.Helper()
	return HashInput{
		Spec:       evalSpec(t),
		Mix:        song.DefaultMixConfig(),
		Style:      song.StylePreset(song.StyleDefault),
		AssetPaths: []string{"kit/drums", "patches/bass.sfz"},
		Seed:       42,
		TargetSec:  120,
		Commit:     "abc123",
	}
}

func TestRenderHash_Stable(t *testing.T) {
	a, err := RenderHash(baseHashInput(t))
	require.NoError(t, err)
	b, err := RenderHash(baseHashInput(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestRenderHash_AssetOrderIrrelevant(t *testing.T) {
	in := baseHashInput(t)
	a, err := RenderHash(in)
	require.NoError(t, err)

	in = baseHashInput(t)
	in.AssetPaths = []string{"patches/bass.sfz", "kit/drums"}
	b, err := RenderHash(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderHash_ChangesWithInputs(t *testing.T) {
	base, err := RenderHash(baseHashInput(t))
	require.NoError(t, err)

	mutations := []func(*HashInput){
		func(in *HashInput) { in.Seed = 43 },
		func(in *HashInput) { in.Commit = "def456" },
		func(in *HashInput) { in.TargetSec = 180 },
		func(in *HashInput) { in.Spec.TempoBPM = 121 },
		func(in *HashInput) { in.Mix.Master.Limiter.CeilingDB = -1 },
		func(in *HashInput) { in.AssetPaths = append(in.AssetPaths, "extra") },
	}
	for i, mutate := range mutations {
		in := baseHashInput(t)
		mutate(&in)
		got, err := RenderHash(in)
		require.NoError(t, err)
		assert.NotEqual(t, base, got, "mutation %d should change the hash", i)
	}
}

func TestChordToneCoverage(t *testing.T) {
	spec := evalSpec(t)
	// bar 0 is C major: C and E are chord tones, D is not
	set := stems.Set{
		song.InstrBass: {
			{Start: 0, Dur: 0.5, Pitch: 36},  // C
			{Start: 0.5, Dur: 0.5, Pitch: 40}, // E
			{Start: 1, Dur: 0.5, Pitch: 38},  // D
		},
	}
	m := Evaluate(spec, set, nil)
	assert.InDelta(t, 2.0/3.0, m.ChordToneCoverage, 1e-9)
}

func TestVoiceSmoothness(t *testing.T) {
	satb, err := theory.GenerateSATB([]string{"C", "C"})
	require.NoError(t, err)
	m := Evaluate(evalSpec(t), stems.Set{}, satb)
	assert.Equal(t, 0.0, m.VoiceSmoothness, "repeated chord moves nothing")
}

func TestIOIVariance(t *testing.T) {
	regular := []stems.Note{
		{Start: 0}, {Start: 0.5}, {Start: 1}, {Start: 1.5},
	}
	irregular := []stems.Note{
		{Start: 0}, {Start: 0.1}, {Start: 1}, {Start: 1.2},
	}
	assert.Equal(t, 0.0, ioiVariance(regular))
	assert.Greater(t, ioiVariance(irregular), 0.0)
}

func TestCadenceFillRate(t *testing.T) {
	spec := evalSpec(t)
	barDur := 2.0 // 4 beats at 120 BPM

	set := stems.Set{song.InstrDrums: nil}
	// bar 0 quiet, cadence bar 1 busy
	set[song.InstrDrums] = append(set[song.InstrDrums], stems.Note{Start: 0})
	for i := 0; i < 8; i++ {
		set[song.InstrDrums] = append(set[song.InstrDrums], stems.Note{Start: barDur + float64(i)*0.2})
	}
	m := Evaluate(spec, set, nil)
	assert.Equal(t, 1.0, m.CadenceFillRate)
}

func TestMeasureLoudness_Silence(t *testing.T) {
	n := 44100
	s := wav.Stereo{L: make([]float64, n), R: make([]float64, n)}
	l := MeasureLoudness(s, 44100)
	assert.Equal(t, -120.0, l.PeakDBFS)
	assert.Equal(t, -70.0, l.LUFS, "gated loudness of silence floors out")
}

func TestMeasureLoudness_Ordering(t *testing.T) {
	n := 44100
	loud := wav.Stereo{L: make([]float64, n), R: make([]float64, n)}
	quiet := wav.Stereo{L: make([]float64, n), R: make([]float64, n)}
	for i := 0; i < n; i++ {
		v := math.Sin(2 * math.Pi * 440 * float64(i) / 44100)
		loud.L[i], loud.R[i] = 0.8*v, 0.8*v
		quiet.L[i], quiet.R[i] = 0.1*v, 0.1*v
	}

	ll := MeasureLoudness(loud, 44100)
	lq := MeasureLoudness(quiet, 44100)
	assert.Greater(t, ll.RMSDBFS, lq.RMSDBFS)
	assert.Greater(t, ll.LUFS, lq.LUFS)
	assert.InDelta(t, 20*math.Log10(0.8), ll.PeakDBFS, 0.1)
}
