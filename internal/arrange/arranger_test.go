package arrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
)

func arrangeSpec(t *testing.T) *song.Spec {
	t.Helper()
	s := &song.Spec{
		TempoBPM: 120,
		Meter:    "4/4",
		Sections: []song.Section{
			{Name: "verse", LengthBars: 4},
			{Name: "chorus", LengthBars: 4},
		},
		Harmony: map[string][]string{
			"verse":  {"C", "Am", "F", "G"},
			"chorus": {"F", "G", "C", "C"},
		},
		Cadences: []song.Cadence{{Bar: 3, Type: "authentic"}},
	}
	s.ApplyDefaults()
	require.NoError(t, s.Validate())
	return s
}

// a minimal set with a steady kick so mute/loop effects are observable
func seedSet(spec *song.Spec) stems.Set {
	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	set := make(stems.Set)
	for bar := 0; bar < spec.TotalBars(); bar++ {
		start := float64(bar) * barDur
		set[song.InstrDrums] = append(set[song.InstrDrums], stems.Note{
			Start: start, Dur: 0.1, Pitch: pattern.PitchKick, Velocity: 100, Channel: pattern.ChannelDrums,
		})
		set[song.InstrBass] = append(set[song.InstrBass], stems.Note{
			Start: start, Dur: 0.4, Pitch: 40, Velocity: 95, Channel: pattern.ChannelBass,
		})
		set[song.InstrKeys] = append(set[song.InstrKeys], stems.Note{
			Start: start, Dur: 1.5, Pitch: 60, Velocity: 80, Channel: pattern.ChannelKeys,
		})
		set[song.InstrPads] = append(set[song.InstrPads], stems.Note{
			Start: start, Dur: barDur, Pitch: 64, Velocity: 64, Channel: pattern.ChannelPads,
		})
	}
	return set
}

func TestArrange_CadenceSnare(t *testing.T) {
	spec := arrangeSpec(t)
	res, err := New(spec, song.StylePreset(song.StyleDefault), 1).Arrange(seedSet(spec))
	require.NoError(t, err)

	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	wantStart := 3*barDur + barDur - 0.25*spec.SecPerBeat()

	found := false
	for _, n := range res.Stems[song.InstrDrums] {
		if n.Pitch == pattern.PitchSnare && n.Start == wantStart && n.Velocity == 110 {
			found = true
		}
	}
	assert.True(t, found, "cadence snare missing at %f", wantStart)
}

func TestArrange_CadenceBassApproach(t *testing.T) {
	spec := arrangeSpec(t)
	in := seedSet(spec)
	before := len(in[song.InstrBass])

	res, err := New(spec, song.StylePreset(song.StyleDefault), 1).Arrange(in)
	require.NoError(t, err)

	assert.Equal(t, before+1, len(res.Stems[song.InstrBass]))
	reg := spec.Registers[song.InstrBass]
	for _, n := range res.Stems[song.InstrBass] {
		assert.GreaterOrEqual(t, n.Pitch, reg.Low)
		assert.LessOrEqual(t, n.Pitch, reg.High)
	}
}

func TestArrange_InputUntouched(t *testing.T) {
	spec := arrangeSpec(t)
	in := seedSet(spec)
	before := in.Clone()

	_, err := New(spec, song.StylePreset(song.StyleClub), 1).Arrange(in)
	require.NoError(t, err)
	assert.Equal(t, before, in, "arranger must not mutate its input")
}

func TestArrange_BridgeMute(t *testing.T) {
	spec := arrangeSpec(t)
	spec.Sections[1].Name = "bridge"
	spec.Harmony["bridge"] = spec.Harmony["chorus"]
	delete(spec.Harmony, "chorus")
	spec.Density["bridge"] = 0.5
	require.NoError(t, spec.Validate())

	style := song.StylePreset(song.StyleLofi)
	require.True(t, style.MuteBridgeDrums)

	res, err := New(spec, style, 1).Arrange(seedSet(spec))
	require.NoError(t, err)

	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	muteStart := 4 * barDur
	for _, n := range res.Stems[song.InstrDrums] {
		inFirstBridgeBar := n.Start >= muteStart && n.Start < muteStart+barDur
		assert.False(t, inFirstBridgeBar, "drum note survived bridge mute at %f", n.Start)
	}
}

func TestArrange_SectionFamilies(t *testing.T) {
	// "bridge_a" and "chorus2" must behave like bridge and chorus
	spec := arrangeSpec(t)
	spec.Sections[1].Name = "bridge_a"
	spec.Harmony["bridge_a"] = spec.Harmony["chorus"]
	delete(spec.Harmony, "chorus")
	spec.Density["bridge_a"] = 0.5
	require.NoError(t, spec.Validate())

	style := song.StylePreset(song.StyleLofi)
	res, err := New(spec, style, 1).Arrange(seedSet(spec))
	require.NoError(t, err)

	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	muteStart := 4 * barDur
	for _, n := range res.Stems[song.InstrDrums] {
		inFirstBar := n.Start >= muteStart && n.Start < muteStart+barDur
		assert.False(t, inFirstBar, "drum note survived bridge_a mute at %f", n.Start)
	}

	spec2 := arrangeSpec(t)
	spec2.Sections[1].Name = "chorus2"
	spec2.Harmony["chorus2"] = spec2.Harmony["chorus"]
	delete(spec2.Harmony, "chorus")
	spec2.Density["chorus2"] = 0.5
	require.NoError(t, spec2.Validate())

	swellStyle := song.StylePreset(song.StyleCinematic)
	require.True(t, swellStyle.SwellBeforeChorus)
	in := seedSet(spec2)
	padsBefore := len(in[song.InstrPads])
	res2, err := New(spec2, swellStyle, 1).Arrange(in)
	require.NoError(t, err)
	assert.Greater(t, len(res2.Stems[song.InstrPads]), padsBefore, "chorus2 should get a swell")
}

func TestArrange_LoopToTarget(t *testing.T) {
	spec := arrangeSpec(t)
	spec.TargetMinutes = 1.6 // 96s target; template is 16s
	require.NoError(t, spec.Validate())

	res, err := New(spec, song.StylePreset(song.StyleDefault), 1).Arrange(seedSet(spec))
	require.NoError(t, err)

	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	arrangedDur := float64(res.Spec.TotalBars()) * barDur
	assert.InDelta(t, 96, arrangedDur, 96*0.02, "looped duration should land within tolerance")
	assert.Greater(t, len(res.Spec.Sections), len(spec.Sections), "looping extends the section list")
	// original spec untouched
	assert.Len(t, spec.Sections, 2)
}

func TestArrange_RitardStretchesFinalBar(t *testing.T) {
	spec := arrangeSpec(t)
	spec.Outro = song.OutroConfig{Mode: "ritard"}

	in := seedSet(spec)
	res, err := New(spec, song.StylePreset(song.StyleDefault), 1).Arrange(in)
	require.NoError(t, err)

	barDur := float64(spec.BeatsPerBar()) * spec.SecPerBeat()
	barStart := float64(spec.TotalBars()-1) * barDur

	// the final pad note started exactly at the last bar; its duration
	// must have grown by the ritard factor
	var finalPad *stems.Note
	for i, n := range res.Stems[song.InstrPads] {
		if n.Start >= barStart {
			finalPad = &res.Stems[song.InstrPads][i]
		}
	}
	require.NotNil(t, finalPad)
	assert.InDelta(t, barDur*1.35, finalPad.Dur, 1e-9)
}

func TestArrange_HitHold(t *testing.T) {
	spec := arrangeSpec(t)
	spec.Outro = song.OutroConfig{Mode: "hit_hold", HoldBeats: 4}

	res, err := New(spec, song.StylePreset(song.StyleDefault), 1).Arrange(seedSet(spec))
	require.NoError(t, err)

	songEnd := float64(spec.TotalBars()*spec.BeatsPerBar()) * spec.SecPerBeat()
	holdSec := 4 * spec.SecPerBeat()

	var hit bool
	for _, n := range res.Stems[song.InstrDrums] {
		if n.Start == songEnd && n.Pitch == pattern.PitchKick && n.Dur == holdSec {
			hit = true
		}
	}
	assert.True(t, hit, "closing drum hit missing")

	// last bass note is extended by the hold
	bass := res.Stems[song.InstrBass]
	last := bass[len(bass)-1]
	assert.Greater(t, last.Start+last.Dur, songEnd)
}
