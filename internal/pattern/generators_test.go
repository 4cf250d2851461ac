package pattern

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/theory"
)

func testContext(t *testing.T, density float64) SectionContext {
	t.Helper()
	var chords []theory.Chord
	for _, sym := range []string{"C", "F", "G", "C"} {
		c, err := theory.Parse(sym)
		require.NoError(t, err)
		chords = append(chords, c)
	}
	return SectionContext{
		Name:        "verse",
		Bars:        4,
		BeatsPerBar: 4,
		Density:     density,
		Chords:      chords,
	}
}

func TestGenerateDrums_Backbeat(t *testing.T) {
	ctx := testContext(t, 0.5)
	events := GenerateDrums(NewStream(1, "verse", "drums"), ctx)
	require.NotEmpty(t, events)

	// snares on beats 2 and 4 of every bar
	snareOnsets := make(map[float64]bool)
	for _, ev := range events {
		if ev.Pitch == PitchSnare && ev.Velocity > 60 {
			snareOnsets[ev.Start] = true
		}
	}
	for bar := 0; bar < 4; bar++ {
		base := float64(bar * 4)
		assert.True(t, snareOnsets[base+1], "bar %d beat 2", bar)
		assert.True(t, snareOnsets[base+3], "bar %d beat 4", bar)
	}
}

func TestGenerateDrums_DensityControlsHats(t *testing.T) {
	sparse := GenerateDrums(NewStream(1, "verse", "drums"), testContext(t, 0.2))
	dense := GenerateDrums(NewStream(1, "verse", "drums"), testContext(t, 0.9))

	count := func(events []Event, pitch int) int {
		n := 0
		for _, ev := range events {
			if ev.Pitch == pitch {
				n++
			}
		}
		return n
	}
	assert.Greater(t, count(dense, PitchClosedHat), count(sparse, PitchClosedHat))
}

func TestGenerateBass_OnGrid(t *testing.T) {
	events := GenerateBass(NewStream(3, "verse", "bass"), testContext(t, 0.6))
	require.NotEmpty(t, events)
	for _, ev := range events {
		frac := ev.Start * 2
		assert.Equal(t, float64(int(frac)), frac, "bass onset off the 8th grid: %f", ev.Start)
		assert.Equal(t, ChannelBass, ev.Channel)
	}
}

func TestGenerateKeys_BlockChords(t *testing.T) {
	ctx := testContext(t, 0.5)
	events := GenerateKeys(NewStream(4, "verse", "keys"), ctx)

	barStarts := 0
	for _, ev := range events {
		if ev.Start == 0 && ev.Dur > 3 {
			barStarts++
		}
	}
	// C major block at bar 0 has three pitch classes
	assert.Equal(t, 3, barStarts)
}

func TestGeneratePads_Sustain(t *testing.T) {
	events := GeneratePads(NewStream(5, "verse", "pads"), testContext(t, 0.8))
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, 4.0, ev.Dur)
	}
}

func TestSynthesizer_Deterministic(t *testing.T) {
	spec := &song.Spec{
		TempoBPM: 120,
		Meter:    "4/4",
		Sections: []song.Section{{Name: "a", LengthBars: 2}},
		Harmony:  map[string][]string{"a": {"C", "F"}},
	}
	spec.ApplyDefaults()

	gen := func() []SectionEvents {
		out, err := NewSynthesizer(spec, 42, nil).GenerateAll(context.Background())
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, gen(), gen())
}

type stubPhrase struct {
	events []Event
	err    error
}

func (s stubPhrase) GeneratePhrase(ctx context.Context, instrument string, section SectionContext) ([]Event, error) {
	return s.events, s.err
}

func TestTryStrategy(t *testing.T) {
	sctx := SectionContext{Name: "a", Bars: 1, BeatsPerBar: 4}
	opts := DefaultStrategyOptions()

	ev := []Event{{Start: 0, Dur: 1, Pitch: 60, Velocity: 90}}
	got, ok := TryStrategy(context.Background(), stubPhrase{events: ev}, "keys", sctx, opts)
	assert.True(t, ok)
	assert.Equal(t, ev, got)

	_, ok = TryStrategy(context.Background(), stubPhrase{err: errors.New("model offline")}, "keys", sctx, opts)
	assert.False(t, ok)

	_, ok = TryStrategy(context.Background(), stubPhrase{}, "keys", sctx, opts)
	assert.False(t, ok, "empty phrase result must fall back")

	_, ok = TryStrategy(context.Background(), nil, "keys", sctx, opts)
	assert.False(t, ok)
}
