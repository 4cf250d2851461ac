package theory

import (
	"fmt"
)

// Voice ranges in MIDI pitch, low to high: bass, tenor, alto, soprano
var voiceRanges = [4][2]int{
	{40, 60}, // bass E2-C4
	{48, 67}, // tenor C3-G4
	{55, 74}, // alto G3-D5
	{60, 81}, // soprano C4-A5
}

// SATB holds four parallel voice lines, one pitch per chord step
type SATB struct {
	Bass    []int
	Tenor   []int
	Alto    []int
	Soprano []int
}

// Voices returns the lines bottom-up for iteration
func (v *SATB) Voices() [][]int {
	return [][]int{v.Bass, v.Tenor, v.Alto, v.Soprano}
}

// Len returns the number of chord steps
func (v *SATB) Len() int {
	return len(v.Bass)
}

// VoicingAt returns the four pitches at one step, bottom-up
func (v *SATB) VoicingAt(i int) [4]int {
	return [4]int{v.Bass[i], v.Tenor[i], v.Alto[i], v.Soprano[i]}
}

// GenerateSATB voice-leads a chord progression into four lines. Each
// step picks the octave placement of chord tones that minimizes total
// semitone movement from the previous step; ties go to the most compact
// voicing. The bass voice always carries the chord root (or slash bass).
func GenerateSATB(symbols []string) (*SATB, error) {
	if len(symbols) == 0 {
		return &SATB{}, nil
	}

	out := &SATB{
		Bass:    make([]int, 0, len(symbols)),
		Tenor:   make([]int, 0, len(symbols)),
		Alto:    make([]int, 0, len(symbols)),
		Soprano: make([]int, 0, len(symbols)),
	}

	var prev [4]int
	havePrev := false

	for _, sym := range symbols {
		chord, err := Parse(sym)
		if err != nil {
			return nil, fmt.Errorf("satb step %q: %w", sym, err)
		}

		voicing, err := bestVoicing(chord, prev, havePrev)
		if err != nil {
			return nil, err
		}

		out.Bass = append(out.Bass, voicing[0])
		out.Tenor = append(out.Tenor, voicing[1])
		out.Alto = append(out.Alto, voicing[2])
		out.Soprano = append(out.Soprano, voicing[3])
		prev = voicing
		havePrev = true
	}
	return out, nil
}

// bestVoicing enumerates candidate pitches per voice and picks the
// arrangement with minimal movement cost (or maximal compactness on the
// first step and for ties)
func bestVoicing(chord Chord, prev [4]int, havePrev bool) ([4]int, error) {
	pcs := chord.PitchClasses()
	rootPC := chord.Root
	if chord.Bass >= 0 {
		rootPC = chord.Bass
	}

	candidates := make([][]int, 4)
	for v := 0; v < 4; v++ {
		allowed := pcs
		if v == 0 {
			allowed = []int{rootPC}
		}
		candidates[v] = placements(allowed, voiceRanges[v])
		if len(candidates[v]) == 0 {
			return [4]int{}, fmt.Errorf("no placement for %q in voice %d range", chord.Symbol, v)
		}
	}

	var best [4]int
	bestCost := -1
	bestSpread := -1

	for _, b := range candidates[0] {
		for _, t := range candidates[1] {
			if t < b {
				continue
			}
			for _, a := range candidates[2] {
				if a < t {
					continue
				}
				for _, s := range candidates[3] {
					if s < a {
						continue
					}
					cur := [4]int{b, t, a, s}
					cost := 0
					if havePrev {
						for i := 0; i < 4; i++ {
							cost += abs(cur[i] - prev[i])
						}
					}
					spread := s - b
					if bestCost < 0 ||
						cost < bestCost ||
						(cost == bestCost && spread < bestSpread) {
						best = cur
						bestCost = cost
						bestSpread = spread
					}
				}
			}
		}
	}

	if bestCost < 0 {
		return [4]int{}, fmt.Errorf("no legal voicing for %q", chord.Symbol)
	}
	return best, nil
}

// placements lists every octave placement of the given pitch classes
// inside a voice range, ascending
func placements(pcs []int, rng [2]int) []int {
	var out []int
	for p := rng[0]; p <= rng[1]; p++ {
		for _, pc := range pcs {
			if p%12 == pc {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
