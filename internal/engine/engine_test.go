package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/wav"
)

func smallSpec(t *testing.T) *song.Spec {
	t.Helper()
	s := &song.Spec{
		TempoBPM: 120,
		Meter:    "4/4",
		Sections: []song.Section{{Name: "verse", LengthBars: 2}},
		Harmony:  map[string][]string{"verse": {"C", "F"}},
	}
	s.ApplyDefaults()
	require.NoError(t, s.Validate())
	return s
}

func TestHarmony_OneVoicingPerBar(t *testing.T) {
	satb, err := Harmony(smallSpec(t))
	require.NoError(t, err)
	assert.Equal(t, 2, satb.Len())
}

func TestHarmony_UnknownChord(t *testing.T) {
	s := smallSpec(t)
	s.Harmony["verse"] = []string{"C", "Xq"}
	_, err := Harmony(s)
	assert.Error(t, err)
}

func TestGenerate_Deterministic(t *testing.T) {
	eng := New(nil)
	spec := smallSpec(t)

	a, _, err := eng.Generate(context.Background(), spec, 42)
	require.NoError(t, err)
	b, _, err := eng.Generate(context.Background(), spec, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, _, err := eng.Generate(context.Background(), spec, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerate_RegisterBounds(t *testing.T) {
	eng := New(nil)
	spec := smallSpec(t)
	set, _, err := eng.Generate(context.Background(), spec, 42)
	require.NoError(t, err)

	for instr, notes := range set {
		reg := spec.Registers[instr]
		for _, n := range notes {
			assert.GreaterOrEqual(t, n.Pitch, reg.Low, "%s note below register", instr)
			assert.LessOrEqual(t, n.Pitch, reg.High, "%s note above register", instr)
		}
	}
}

func TestRenderSong_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := PipelineConfig{
		Spec:       smallSpec(t),
		Seed:       42,
		Style:      song.StylePreset(song.StyleDefault),
		Mix:        song.DefaultMixConfig(),
		SampleRate: 22050,
		OutputDir:  dir,
		WriteStems: true,
		WriteMIDI:  true,
	}

	res, err := RenderSong(context.Background(), cfg, io.Discard)
	require.NoError(t, err)

	assert.Len(t, res.Hash, 64)
	assert.False(t, res.CacheHit)
	assert.Equal(t, "default", res.Style)
	assert.Equal(t, 22050, res.SampleRate)

	// two 4/4 bars at 120 BPM are 4 s of program; the master is trimmed
	// to that, give or take humanization pushing the last release out
	assert.GreaterOrEqual(t, res.DurationS, 4.0)
	assert.InDelta(t, 4.0, res.DurationS, 0.1)

	f, err := wav.ReadFile(res.MasterPath)
	require.NoError(t, err)
	assert.Equal(t, res.Hash, f.Comment)
	assert.InDelta(t, res.DurationS*22050, float64(len(f.Samples)), 1.0)

	require.NotEmpty(t, res.StemPaths)
	for instr, path := range res.StemPaths {
		_, err := os.Stat(path)
		assert.NoError(t, err, "stem for %s not written", instr)
	}
	_, err = os.Stat(res.MIDIPath)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "metadata.json"))
	assert.NoError(t, err)

	assert.Greater(t, res.Metrics.ChordToneCoverage, 0.5)
	assert.Less(t, res.Loudness.PeakDBFS, 0.0)
}

func TestRenderSong_CacheRoundTrip(t *testing.T) {
	cacheDir := t.TempDir()
	cfg := PipelineConfig{
		Spec:       smallSpec(t),
		Seed:       7,
		Style:      song.StylePreset(song.StyleDefault),
		Mix:        song.DefaultMixConfig(),
		SampleRate: 22050,
		OutputDir:  t.TempDir(),
		UseCache:   true,
		CacheDir:   cacheDir,
	}

	first, err := RenderSong(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	cfg.Spec = smallSpec(t)
	cfg.OutputDir = t.TempDir()
	second, err := RenderSong(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Hash, second.Hash)
	assert.InDelta(t, first.DurationS, second.DurationS, 1e-9)
}

func TestRenderSong_InvalidSpec(t *testing.T) {
	cfg := PipelineConfig{
		Spec: &song.Spec{TempoBPM: 120, Meter: "4/4"},
		Mix:  song.DefaultMixConfig(),
	}
	_, err := RenderSong(context.Background(), cfg, io.Discard)
	assert.Error(t, err)
}

func TestAssetConfigPaths(t *testing.T) {
	cfg := AssetConfig{
		InstrumentFiles: map[string]string{"keys": "piano.sfz"},
		DrumDir:         "kits/acoustic",
	}
	assert.ElementsMatch(t, []string{"piano.sfz", "kits/acoustic"}, cfg.Paths())
	assert.Empty(t, AssetConfig{}.Paths())
}
