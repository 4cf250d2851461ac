package theory

import (
	"fmt"
	"strings"

	sferr "github.com/dygy/songforge/internal/errors"
)

// Chord is a parsed chord symbol: a root pitch class plus semitone
// offsets from the root. Bass is -1 unless the symbol was a slash chord.
type Chord struct {
	Symbol    string
	Root      int // pitch class 0-11
	Intervals []int
	Bass      int // pitch class of slash bass, -1 if none
}

var noteNames = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// Quality suffixes ordered longest-first so "maj7" wins over "7"
var qualities = []struct {
	suffix    string
	intervals []int
}{
	{"maj9", []int{0, 4, 7, 11, 14}},
	{"maj7", []int{0, 4, 7, 11}},
	{"m7b5", []int{0, 3, 6, 10}},
	{"dim7", []int{0, 3, 6, 9}},
	{"add9", []int{0, 4, 7, 14}},
	{"sus2", []int{0, 2, 7}},
	{"sus4", []int{0, 5, 7}},
	{"aug", []int{0, 4, 8}},
	{"dim", []int{0, 3, 6}},
	{"m9", []int{0, 3, 7, 10, 14}},
	{"m7", []int{0, 3, 7, 10}},
	{"m6", []int{0, 3, 7, 9}},
	{"^9", []int{0, 4, 7, 11, 14}},
	{"^7", []int{0, 4, 7, 11}},
	{"9", []int{0, 4, 7, 10, 14}},
	{"7", []int{0, 4, 7, 10}},
	{"6", []int{0, 4, 7, 9}},
	{"m", []int{0, 3, 7}},
	{"", []int{0, 4, 7}},
}

// Parse converts a chord symbol like "Cm7", "F#maj7" or "G7/B" into a
// Chord. Unrecognized symbols are an error, never a silent default.
func Parse(sym string) (Chord, error) {
	s := strings.TrimSpace(sym)
	if s == "" {
		return Chord{}, fmt.Errorf("%w: empty symbol", sferr.ErrUnknownChord)
	}

	bass := -1
	if idx := strings.Index(s, "/"); idx >= 0 {
		bassName := s[idx+1:]
		pc, _, err := parseRoot(bassName)
		if err != nil || pc < 0 {
			return Chord{}, fmt.Errorf("%w: bad slash bass in %q", sferr.ErrUnknownChord, sym)
		}
		bass = pc
		s = s[:idx]
	}

	root, rest, err := parseRoot(s)
	if err != nil {
		return Chord{}, fmt.Errorf("%w: %q", sferr.ErrUnknownChord, sym)
	}

	for _, q := range qualities {
		if rest == q.suffix {
			iv := make([]int, len(q.intervals))
			copy(iv, q.intervals)
			return Chord{Symbol: sym, Root: root, Intervals: iv, Bass: bass}, nil
		}
	}
	return Chord{}, fmt.Errorf("%w: %q (quality %q)", sferr.ErrUnknownChord, sym, rest)
}

// parseRoot consumes the leading note letter and accidental, returning
// the pitch class and remaining quality suffix
func parseRoot(s string) (int, string, error) {
	if len(s) == 0 {
		return -1, "", fmt.Errorf("empty root")
	}
	pc, ok := noteNames[strings.ToUpper(s[:1])]
	if !ok {
		return -1, "", fmt.Errorf("bad note letter %q", s[:1])
	}
	rest := s[1:]
	for len(rest) > 0 {
		switch rest[0] {
		case '#':
			pc = (pc + 1) % 12
			rest = rest[1:]
			continue
		case 'b':
			// 'b' is only an accidental right after the letter or
			// another accidental; "Bm" keeps its 'm' as quality
			pc = (pc + 11) % 12
			rest = rest[1:]
			continue
		}
		break
	}
	return pc, rest, nil
}

// PitchClasses returns the chord's pitch classes, slash bass included
func (c Chord) PitchClasses() []int {
	seen := make(map[int]bool)
	var pcs []int
	for _, iv := range c.Intervals {
		pc := (c.Root + iv) % 12
		if !seen[pc] {
			seen[pc] = true
			pcs = append(pcs, pc)
		}
	}
	if c.Bass >= 0 && !seen[c.Bass] {
		pcs = append(pcs, c.Bass)
	}
	return pcs
}

// RootPitch places the chord root (or slash bass if present) in the
// octave nearest to a center pitch
func (c Chord) RootPitch(center int) int {
	pc := c.Root
	if c.Bass >= 0 {
		pc = c.Bass
	}
	return NearestOctave(pc, center)
}

// Third returns the chord's third interval pitch class, or -1 for
// sus/no-third chords
func (c Chord) Third() int {
	for _, iv := range c.Intervals {
		if iv == 3 || iv == 4 {
			return (c.Root + iv) % 12
		}
	}
	return -1
}

// Seventh returns the chord's seventh pitch class, or -1 if absent
func (c Chord) Seventh() int {
	for _, iv := range c.Intervals {
		if iv == 10 || iv == 11 {
			return (c.Root + iv) % 12
		}
	}
	return -1
}

// NearestOctave places a pitch class in the octave closest to center
func NearestOctave(pc, center int) int {
	base := center - center%12 + pc
	best := base
	for _, cand := range []int{base - 12, base, base + 12} {
		if abs(cand-center) < abs(best-center) {
			best = cand
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
