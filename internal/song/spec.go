package song

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	sferr "github.com/dygy/songforge/internal/errors"
)

// Instrument names used throughout the pipeline
const (
	InstrDrums = "drums"
	InstrBass  = "bass"
	InstrKeys  = "keys"
	InstrPads  = "pads"
)

// Instruments lists every part the engine generates, in render order
func Instruments() []string {
	return []string{InstrDrums, InstrBass, InstrKeys, InstrPads}
}

// Section is a named bar-length span of the song
type Section struct {
	Name       string `json:"name" validate:"required"`
	LengthBars int    `json:"length_bars" validate:"gt=0"`
}

// Cadence marks a bar eligible for a fill and resolution treatment
type Cadence struct {
	Bar  int    `json:"bar" validate:"gte=0"`
	Type string `json:"type"` // "authentic", "half", "deceptive"
}

// Register is an inclusive MIDI pitch range for one instrument
type Register struct {
	Low  int `json:"low" validate:"gte=0,lte=127"`
	High int `json:"high" validate:"gte=0,lte=127"`
}

// OutroConfig selects the song ending treatment
type OutroConfig struct {
	Mode      string  `json:"mode"` // "", "ritard", "hit_hold"
	HoldBeats float64 `json:"hold_beats"`
}

// Spec is the declarative description of a song. It is created once from
// user input and read-only after Validate; only the arranger's duration
// extension appends sections before generation starts.
type Spec struct {
	Title         string              `json:"title"`
	Seed          int64               `json:"seed"`
	Key           string              `json:"key"`
	Mode          string              `json:"mode"`
	TempoBPM      float64             `json:"tempo_bpm" validate:"gt=0,lte=400"`
	Meter         string              `json:"meter" validate:"required"`
	Sections      []Section           `json:"sections" validate:"min=1,dive"`
	Harmony       map[string][]string `json:"harmony" validate:"required"`
	Density       map[string]float64  `json:"density"`
	Registers     map[string]Register `json:"registers"`
	Cadences      []Cadence           `json:"cadences" validate:"dive"`
	Tension       []int               `json:"tension"` // extra stab intervals in semitones (e.g. 14 for a 9th)
	Swing         float64             `json:"swing" validate:"gte=0,lte=1"`
	Outro         OutroConfig         `json:"outro"`
	TargetMinutes float64             `json:"target_minutes" validate:"gte=0"`
}

var validate = validator.New()

// LoadSpec reads and validates a song spec from a JSON file
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults fills registers and density for instruments the spec omits
func (s *Spec) ApplyDefaults() {
	if s.Registers == nil {
		s.Registers = map[string]Register{}
	}
	for instr, reg := range DefaultRegisters() {
		if _, ok := s.Registers[instr]; !ok {
			s.Registers[instr] = reg
		}
	}
	if s.Density == nil {
		s.Density = map[string]float64{}
	}
	for _, sec := range s.Sections {
		if _, ok := s.Density[sec.Name]; !ok {
			s.Density[sec.Name] = 0.5
		}
	}
	if s.Mode == "" {
		s.Mode = "major"
	}
}

// DefaultRegisters returns the built-in per-instrument pitch ranges
func DefaultRegisters() map[string]Register {
	return map[string]Register{
		InstrDrums: {Low: 35, High: 59},
		InstrBass:  {Low: 28, High: 55},
		InstrKeys:  {Low: 48, High: 84},
		InstrPads:  {Low: 55, High: 86},
	}
}

// Validate fails fast on any structural inconsistency. Nothing is
// auto-corrected: a bad spec is rejected, never repaired.
func (s *Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", sferr.ErrSpecInvalid, err)
	}
	if _, _, err := ParseMeter(s.Meter); err != nil {
		return err
	}
	total := s.TotalBars()
	for _, sec := range s.Sections {
		chords, ok := s.Harmony[sec.Name]
		if !ok {
			return fmt.Errorf("%w: section %q has no harmony", sferr.ErrSpecInvalid, sec.Name)
		}
		if len(chords) != sec.LengthBars {
			return fmt.Errorf("%w: section %q has %d bars but %d harmony entries",
				sferr.ErrSpecInvalid, sec.Name, sec.LengthBars, len(chords))
		}
		d, ok := s.Density[sec.Name]
		if ok && (d < 0 || d > 1) {
			return fmt.Errorf("%w: section %q density %.3f outside [0,1]",
				sferr.ErrSpecInvalid, sec.Name, d)
		}
	}
	for instr, reg := range s.Registers {
		if reg.Low > reg.High {
			return fmt.Errorf("%w: register for %q has low %d > high %d",
				sferr.ErrSpecInvalid, instr, reg.Low, reg.High)
		}
	}
	for _, c := range s.Cadences {
		if c.Bar >= total {
			return fmt.Errorf("%w: cadence bar %d beyond song end (%d bars)",
				sferr.ErrSpecInvalid, c.Bar, total)
		}
	}
	return nil
}

// ParseMeter splits an "N/D" meter string. Malformed strings are an
// explicit error so downstream beat arithmetic never divides by zero.
func ParseMeter(meter string) (num, denom int, err error) {
	parts := strings.Split(meter, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", sferr.ErrBadMeter, meter)
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	denom, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || num <= 0 || denom <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", sferr.ErrBadMeter, meter)
	}
	return num, denom, nil
}

// BeatsPerBar returns quarter-note beats per bar for the spec's meter
func (s *Spec) BeatsPerBar() int {
	num, denom, err := ParseMeter(s.Meter)
	if err != nil {
		return 0
	}
	beats := num * 4 / denom
	if beats < 1 {
		beats = 1
	}
	return beats
}

// SecPerBeat returns seconds per quarter-note beat
func (s *Spec) SecPerBeat() float64 {
	return 60.0 / s.TempoBPM
}

// TotalBars is the sum of all section lengths
func (s *Spec) TotalBars() int {
	total := 0
	for _, sec := range s.Sections {
		total += sec.LengthBars
	}
	return total
}

// SectionAt returns the section containing a bar plus the section's
// first bar, using cumulative section lengths.
func (s *Spec) SectionAt(bar int) (Section, int, bool) {
	start := 0
	for _, sec := range s.Sections {
		if bar < start+sec.LengthBars {
			return sec, start, true
		}
		start += sec.LengthBars
	}
	return Section{}, 0, false
}

// ChordAt returns the chord symbol active at a bar
func (s *Spec) ChordAt(bar int) (string, bool) {
	sec, start, ok := s.SectionAt(bar)
	if !ok {
		return "", false
	}
	chords := s.Harmony[sec.Name]
	idx := bar - start
	if idx < 0 || idx >= len(chords) {
		return "", false
	}
	return chords[idx], true
}

// SectionDensity returns the density target for a section name
func (s *Spec) SectionDensity(name string) float64 {
	if d, ok := s.Density[name]; ok {
		return d
	}
	return 0.5
}

// IsCadenceBar reports whether a bar is declared as a cadence point
func (s *Spec) IsCadenceBar(bar int) (Cadence, bool) {
	for _, c := range s.Cadences {
		if c.Bar == bar {
			return c, true
		}
	}
	return Cadence{}, false
}
