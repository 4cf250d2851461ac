package pattern

import (
	"context"
	"fmt"

	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/theory"
)

// Synthesizer produces beat-relative events per section and instrument.
// All randomness is keyed by (seed, section name, instrument); the
// optional phrase generator is injected, never a package global.
type Synthesizer struct {
	spec   *song.Spec
	seed   int64
	phrase PhraseGenerator
	opts   StrategyOptions
}

// NewSynthesizer creates a Synthesizer. phrase may be nil, in which
// case only the algorithmic generators run.
func NewSynthesizer(spec *song.Spec, seed int64, phrase PhraseGenerator) *Synthesizer {
	return &Synthesizer{
		spec:   spec,
		seed:   seed,
		phrase: phrase,
		opts:   DefaultStrategyOptions(),
	}
}

// SectionEvents holds one section's generated events per instrument
type SectionEvents struct {
	Context SectionContext
	Parts   map[string][]Event
}

// GenerateAll generates events for every section in order
func (s *Synthesizer) GenerateAll(ctx context.Context) ([]SectionEvents, error) {
	var out []SectionEvents
	for i := range s.spec.Sections {
		se, err := s.GenerateSection(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	return out, nil
}

// GenerateSection generates one section's events for all instruments
func (s *Synthesizer) GenerateSection(ctx context.Context, index int) (SectionEvents, error) {
	sec := s.spec.Sections[index]
	chords, err := s.sectionChords(sec)
	if err != nil {
		return SectionEvents{}, err
	}

	sctx := SectionContext{
		Name:        sec.Name,
		Index:       index,
		Bars:        sec.LengthBars,
		BeatsPerBar: s.spec.BeatsPerBar(),
		Density:     s.spec.SectionDensity(sec.Name),
		Chords:      chords,
	}

	parts := make(map[string][]Event, 4)
	for _, instr := range song.Instruments() {
		if events, ok := TryStrategy(ctx, s.phrase, instr, sctx, s.opts); ok {
			parts[instr] = events
			continue
		}
		rng := NewStream(s.seed, sec.Name, instr)
		switch instr {
		case song.InstrDrums:
			parts[instr] = GenerateDrums(rng, sctx)
		case song.InstrBass:
			parts[instr] = GenerateBass(rng, sctx)
		case song.InstrKeys:
			parts[instr] = GenerateKeys(rng, sctx)
		case song.InstrPads:
			parts[instr] = GeneratePads(rng, sctx)
		}
	}
	return SectionEvents{Context: sctx, Parts: parts}, nil
}

func (s *Synthesizer) sectionChords(sec song.Section) ([]theory.Chord, error) {
	symbols := s.spec.Harmony[sec.Name]
	chords := make([]theory.Chord, 0, len(symbols))
	for _, sym := range symbols {
		c, err := theory.Parse(sym)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sec.Name, err)
		}
		chords = append(chords, c)
	}
	return chords, nil
}
