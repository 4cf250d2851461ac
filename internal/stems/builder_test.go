package stems

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/theory"
)

func testSpec(t *testing.T) *song.Spec {
	t.Helper()
	s := &song.Spec{
		TempoBPM: 120,
		Meter:    "4/4",
		Swing:    0.1,
		Sections: []song.Section{
			{Name: "verse", LengthBars: 4},
			{Name: "chorus", LengthBars: 4},
		},
		Harmony: map[string][]string{
			"verse":  {"C", "Am", "F", "G"},
			"chorus": {"F", "G", "C", "C"},
		},
	}
	s.ApplyDefaults()
	require.NoError(t, s.Validate())
	return s
}

func buildSet(t *testing.T, spec *song.Spec, seed int64) Set {
	t.Helper()
	sections, err := pattern.NewSynthesizer(spec, seed, nil).GenerateAll(context.Background())
	require.NoError(t, err)

	var symbols []string
	for bar := 0; bar < spec.TotalBars(); bar++ {
		sym, ok := spec.ChordAt(bar)
		require.True(t, ok)
		symbols = append(symbols, sym)
	}
	satb, err := theory.GenerateSATB(symbols)
	require.NoError(t, err)

	set, err := NewBuilder(spec, seed, satb).Build(sections)
	require.NoError(t, err)
	return set
}

func TestBuild_Deterministic(t *testing.T) {
	spec := testSpec(t)
	a := buildSet(t, spec, 42)
	b := buildSet(t, spec, 42)
	assert.Equal(t, a, b)

	c := buildSet(t, spec, 43)
	assert.NotEqual(t, a, c, "different seeds must diverge")
}

func TestBuild_RegisterBounds(t *testing.T) {
	spec := testSpec(t)
	set := buildSet(t, spec, 42)

	for instr, notes := range set {
		reg := spec.Registers[instr]
		for _, n := range notes {
			assert.GreaterOrEqual(t, n.Pitch, reg.Low, "%s note at %f", instr, n.Start)
			assert.LessOrEqual(t, n.Pitch, reg.High, "%s note at %f", instr, n.Start)
		}
	}
}

func TestBuild_NarrowDrumRegisterFolds(t *testing.T) {
	spec := testSpec(t)
	spec.Registers[song.InstrDrums] = song.Register{Low: 40, High: 41}
	require.NoError(t, spec.Validate())

	set := buildSet(t, spec, 42)
	require.NotEmpty(t, set[song.InstrDrums])
	for _, n := range set[song.InstrDrums] {
		assert.GreaterOrEqual(t, n.Pitch, 40, "drum note at %f", n.Start)
		assert.LessOrEqual(t, n.Pitch, 41, "drum note at %f", n.Start)
	}
}

func TestBuild_SortedAndNonNegative(t *testing.T) {
	set := buildSet(t, testSpec(t), 7)
	for instr, notes := range set {
		require.NotEmpty(t, notes, instr)
		for i, n := range notes {
			assert.GreaterOrEqual(t, n.Start, 0.0)
			assert.Greater(t, n.Dur, 0.0)
			assert.GreaterOrEqual(t, n.Velocity, 1)
			assert.LessOrEqual(t, n.Velocity, 127)
			if i > 0 {
				assert.LessOrEqual(t, notes[i-1].Start, n.Start, "%s unsorted at %d", instr, i)
			}
		}
	}
}

func TestFoldToRegister(t *testing.T) {
	assert.Equal(t, 40, FoldToRegister(28, 35, 50))
	assert.Equal(t, 48, FoldToRegister(60, 35, 50))
	assert.Equal(t, 42, FoldToRegister(42, 35, 50))
	// degenerate range clamps
	assert.Equal(t, 40, FoldToRegister(90, 40, 40))
}

func TestDedupe(t *testing.T) {
	notes := []Note{
		{Start: 0, Dur: 0.5, Pitch: 60, Velocity: 90},
		{Start: 0.01, Dur: 0.5, Pitch: 60, Velocity: 80},
		{Start: 0.01, Dur: 0.5, Pitch: 64, Velocity: 80},
		{Start: 0.5, Dur: 0.5, Pitch: 60, Velocity: 85},
	}
	got := Dedupe(notes, 0.02)
	assert.Len(t, got, 3)
}

func TestSetClone(t *testing.T) {
	set := Set{"bass": {{Start: 0, Dur: 1, Pitch: 40}}}
	cp := set.Clone()
	cp["bass"][0].Pitch = 50
	assert.Equal(t, 40, set["bass"][0].Pitch)
}
