package song

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// StyleName selects a preset arrangement character
type StyleName string

const (
	StyleDefault   StyleName = "default"
	StyleLofi      StyleName = "lofi"
	StyleCinematic StyleName = "cinematic"
	StyleClub      StyleName = "club"
)

// StyleConfig gates arrangement decorations and overrides the section
// velocity curve. Zero values fall back to the default preset.
type StyleConfig struct {
	Name              StyleName          `json:"name"`
	TomRolls          bool               `json:"tom_rolls"`
	NoiseSweeps       bool               `json:"noise_sweeps"`
	SwellBeforeChorus bool               `json:"swell_before_chorus"`
	MuteBridgeDrums   bool               `json:"mute_bridge_drums"`
	GhostNoteProb     float64            `json:"ghost_note_prob" validate:"gte=0,lte=1"`
	VelocityCurveDB   map[string]float64 `json:"velocity_curve_db"`
}

var stylePresets = map[StyleName]StyleConfig{
	StyleDefault: {
		Name:              StyleDefault,
		TomRolls:          true,
		NoiseSweeps:       false,
		SwellBeforeChorus: true,
		MuteBridgeDrums:   true,
		GhostNoteProb:     0.35,
	},
	StyleLofi: {
		Name:              StyleLofi,
		TomRolls:          false,
		NoiseSweeps:       false,
		SwellBeforeChorus: false,
		MuteBridgeDrums:   true,
		GhostNoteProb:     0.5,
	},
	StyleCinematic: {
		Name:              StyleCinematic,
		TomRolls:          true,
		NoiseSweeps:       true,
		SwellBeforeChorus: true,
		MuteBridgeDrums:   false,
		GhostNoteProb:     0.2,
	},
	StyleClub: {
		Name:              StyleClub,
		TomRolls:          false,
		NoiseSweeps:       true,
		SwellBeforeChorus: true,
		MuteBridgeDrums:   true,
		GhostNoteProb:     0.25,
	},
}

// DefaultVelocityCurveDB maps section names to dB offsets applied by the
// dynamics stage. Unlisted sections get 0 dB.
func DefaultVelocityCurveDB() map[string]float64 {
	return map[string]float64{
		"intro":  -3,
		"verse":  -6,
		"chorus": 3,
		"bridge": -2,
		"outro":  -4,
	}
}

// ParseStyle converts a string to a StyleName
func ParseStyle(s string) StyleName {
	switch strings.ToLower(s) {
	case "lofi", "lo-fi":
		return StyleLofi
	case "cinematic", "film":
		return StyleCinematic
	case "club", "dance":
		return StyleClub
	default:
		return StyleDefault
	}
}

// StylePreset returns the built-in config for a style name
func StylePreset(name StyleName) StyleConfig {
	cfg, ok := stylePresets[name]
	if !ok {
		cfg = stylePresets[StyleDefault]
	}
	if cfg.VelocityCurveDB == nil {
		cfg.VelocityCurveDB = DefaultVelocityCurveDB()
	}
	return cfg
}

// AvailableStyles returns the list of built-in style presets
func AvailableStyles() []StyleName {
	return []StyleName{StyleDefault, StyleLofi, StyleCinematic, StyleClub}
}

// StyleDescription returns a description for each style
func StyleDescription(name StyleName) string {
	descriptions := map[StyleName]string{
		StyleDefault:   "Balanced fills, pad swells into choruses",
		StyleLofi:      "Sparse fills, heavy ghost notes, no sweeps",
		StyleCinematic: "Tom rolls and noise sweeps, drums stay in bridges",
		StyleClub:      "Sweep-driven transitions, tight ghost notes",
	}
	return descriptions[name]
}

// LoadStyleConfig reads a style config JSON file; an empty path returns
// the default preset
func LoadStyleConfig(path string) (StyleConfig, error) {
	if path == "" {
		return StylePreset(StyleDefault), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return StyleConfig{}, fmt.Errorf("read style config: %w", err)
	}
	cfg := StylePreset(StyleDefault)
	if err := json.Unmarshal(data, &cfg); err != nil {
		return StyleConfig{}, fmt.Errorf("parse style config: %w", err)
	}
	if cfg.VelocityCurveDB == nil {
		cfg.VelocityCurveDB = DefaultVelocityCurveDB()
	}
	return cfg, nil
}
