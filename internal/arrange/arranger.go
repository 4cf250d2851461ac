package arrange

import (
	"fmt"
	"strings"

	"github.com/dygy/songforge/internal/pattern"
	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
	"github.com/dygy/songforge/internal/theory"
)

// Arranger applies cadence fills, style FX, duration looping and the
// outro. Each stage consumes an owned note set and produces a new one;
// nothing is shared across stage boundaries.
type Arranger struct {
	spec  *song.Spec
	style song.StyleConfig
	seed  int64
}

// New creates an Arranger
func New(spec *song.Spec, style song.StyleConfig, seed int64) *Arranger {
	return &Arranger{spec: spec, style: style, seed: seed}
}

// Result carries the arranged notes plus the spec as extended by
// duration looping
type Result struct {
	Stems stems.Set
	Spec  *song.Spec
}

// Arrange runs all arrangement stages in order
func (a *Arranger) Arrange(in stems.Set) (Result, error) {
	spec := cloneSpec(a.spec)
	set := in.Clone()

	set, err := a.applyCadences(set, spec)
	if err != nil {
		return Result{}, fmt.Errorf("cadences: %w", err)
	}
	set.SortAll()

	set = a.applyStyleFX(set, spec)
	set.SortAll()

	if spec.TargetMinutes > 0 {
		set = a.loopToTarget(set, spec)
		set.SortAll()
	}

	set = a.applyOutro(set, spec)
	set.SortAll()

	return Result{Stems: set, Spec: spec}, nil
}

// applyCadences decorates each declared cadence bar: a snare on the
// bar's last subdivision, a style-gated tom roll or noise sweep, and a
// chromatic bass approach into the next bar's first chord tone.
func (a *Arranger) applyCadences(set stems.Set, spec *song.Spec) (stems.Set, error) {
	beatsPerBar := spec.BeatsPerBar()
	secPerBeat := spec.SecPerBeat()
	barDur := float64(beatsPerBar) * secPerBeat
	rng := pattern.NewStream(a.seed, "arrange", "cadence")

	for _, cad := range spec.Cadences {
		barStart := float64(cad.Bar) * barDur
		lastSub := barStart + barDur - 0.25*secPerBeat

		set[song.InstrDrums] = append(set[song.InstrDrums], stems.Note{
			Start: lastSub, Dur: 0.25 * secPerBeat,
			Pitch: pattern.PitchSnare, Velocity: 110, Channel: pattern.ChannelDrums,
		})

		if a.style.TomRolls && rng.Float64() < 0.7 {
			toms := []int{pattern.PitchTomHigh, pattern.PitchTomMid, pattern.PitchTomLow}
			for i, tom := range toms {
				set[song.InstrDrums] = append(set[song.InstrDrums], stems.Note{
					Start: barStart + barDur - float64(3-i)*0.25*secPerBeat,
					Dur:   0.25 * secPerBeat,
					Pitch: tom, Velocity: 88 + 4*i, Channel: pattern.ChannelDrums,
				})
			}
		}
		if a.style.NoiseSweeps {
			set[song.InstrDrums] = append(set[song.InstrDrums], stems.Note{
				Start: barStart, Dur: barDur,
				Pitch: pattern.PitchSweep, Velocity: 70, Channel: pattern.ChannelDrums,
			})
		}

		if sym, ok := spec.ChordAt(cad.Bar + 1); ok {
			chord, err := theory.Parse(sym)
			if err != nil {
				return nil, err
			}
			reg := spec.Registers[song.InstrBass]
			target := theory.NearestOctave(chord.Root, (reg.Low+reg.High)/2)
			approach := stems.FoldToRegister(target-1, reg.Low, reg.High)
			set[song.InstrBass] = append(set[song.InstrBass], stems.Note{
				Start: barStart + barDur - 0.5*secPerBeat, Dur: 0.5 * secPerBeat,
				Pitch: approach, Velocity: 96, Channel: pattern.ChannelBass,
			})
		}
	}
	return set, nil
}

// applyStyleFX adds a reverse-pad swell into chorus sections and mutes
// drums in the first bar of bridge sections, both style-gated
func (a *Arranger) applyStyleFX(set stems.Set, spec *song.Spec) stems.Set {
	beatsPerBar := spec.BeatsPerBar()
	secPerBeat := spec.SecPerBeat()
	barDur := float64(beatsPerBar) * secPerBeat

	startBar := 0
	for _, sec := range spec.Sections {
		if a.style.SwellBeforeChorus && sectionIs(sec.Name, "chorus") && startBar > 0 {
			swellStart := float64(startBar-1) * barDur
			if sym, ok := spec.ChordAt(startBar); ok {
				if chord, err := theory.Parse(sym); err == nil {
					root := theory.NearestOctave(chord.Root, 72)
					steps := beatsPerBar * 2
					for i := 0; i < steps; i++ {
						vel := 30 + (90-30)*i/steps
						set[song.InstrPads] = append(set[song.InstrPads], stems.Note{
							Start: swellStart + float64(i)*0.5*secPerBeat,
							Dur:   0.5 * secPerBeat,
							Pitch: root, Velocity: vel, Channel: pattern.ChannelPads,
						})
					}
				}
			}
		}
		if a.style.MuteBridgeDrums && sectionIs(sec.Name, "bridge") {
			muteStart := float64(startBar) * barDur
			muteEnd := muteStart + barDur
			var kept []stems.Note
			for _, n := range set[song.InstrDrums] {
				if n.Start >= muteStart && n.Start < muteEnd {
					continue
				}
				kept = append(kept, n)
			}
			set[song.InstrDrums] = kept
		}
		startBar += sec.LengthBars
	}
	return set
}

// sectionIs matches section families by name: "chorus", "chorus2" and
// "final_chorus" all count as choruses
func sectionIs(name, family string) bool {
	return strings.Contains(strings.ToLower(name), family)
}

func cloneSpec(s *song.Spec) *song.Spec {
	cp := *s
	cp.Sections = make([]song.Section, len(s.Sections))
	copy(cp.Sections, s.Sections)
	return &cp
}
