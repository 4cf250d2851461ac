package song

import (
	"encoding/json"
	"fmt"
	"os"

	sferr "github.com/dygy/songforge/internal/errors"
)

// EQConfig is a single RBJ biquad band
type EQConfig struct {
	Type   string  `json:"type" validate:"omitempty,oneof=peaking low_shelf high_shelf"`
	FreqHz float64 `json:"freq_hz" validate:"omitempty,gt=0"`
	GainDB float64 `json:"gain_db"`
	Q      float64 `json:"q"`
}

// ChorusConfig is a two-voice modulated-delay chorus
type ChorusConfig struct {
	DepthMs float64 `json:"depth_ms" validate:"gte=0"`
	RateHz  float64 `json:"rate_hz" validate:"gte=0"`
	Mix     float64 `json:"mix" validate:"gte=0,lte=1"`
}

// TrackConfig controls one instrument channel strip
type TrackConfig struct {
	GainDB     float64       `json:"gain_db"`
	Pan        float64       `json:"pan" validate:"gte=-1,lte=1"`
	ReverbSend float64       `json:"reverb_send" validate:"gte=0,lte=1"`
	EQ         *EQConfig     `json:"eq,omitempty"`
	Chorus     *ChorusConfig `json:"chorus,omitempty"`
}

// SaturationConfig is the master tanh soft-clip stage
type SaturationConfig struct {
	Drive float64 `json:"drive" validate:"gte=0"`
}

// CompressorConfig is the master RMS-envelope compressor
type CompressorConfig struct {
	ThresholdDB float64 `json:"threshold_db"`
	Ratio       float64 `json:"ratio" validate:"gte=1"`
	AttackMs    float64 `json:"attack_ms" validate:"gt=0"`
	ReleaseMs   float64 `json:"release_ms" validate:"gt=0"`
	KneeDB      float64 `json:"knee_db" validate:"gte=0"`
	LookaheadMs float64 `json:"lookahead_ms" validate:"gte=0"`
}

// LimiterConfig is the final oversampled true-peak limiter
type LimiterConfig struct {
	CeilingDB  float64 `json:"ceiling_db" validate:"lte=0"`
	Oversample int     `json:"oversample" validate:"gte=1,lte=8"`
}

// ReverbConfig is the shared plate reverb bus
type ReverbConfig struct {
	RoomSize   float64 `json:"room_size" validate:"gte=0,lte=1"`
	Damping    float64 `json:"damping" validate:"gte=0,lte=1"`
	PredelayMs float64 `json:"predelay_ms" validate:"gte=0"`
	Level      float64 `json:"level" validate:"gte=0"`
}

// MasterConfig is the master bus chain, applied in struct order
type MasterConfig struct {
	HeadroomDB float64           `json:"headroom_db" validate:"gte=0"`
	Saturation *SaturationConfig `json:"saturation,omitempty"`
	Compressor *CompressorConfig `json:"compressor,omitempty"`
	Limiter    LimiterConfig     `json:"limiter"`
}

// MixConfig enumerates every recognized mixing option. Unknown options do
// not exist: the struct is the schema.
type MixConfig struct {
	Tracks map[string]TrackConfig `json:"tracks"`
	Reverb ReverbConfig           `json:"reverb"`
	Master MasterConfig           `json:"master"`
}

// DefaultMixConfig returns a usable starting mix for the four core parts
func DefaultMixConfig() MixConfig {
	return MixConfig{
		Tracks: map[string]TrackConfig{
			InstrDrums: {GainDB: 0, Pan: 0, ReverbSend: 0.08},
			InstrBass:  {GainDB: -1, Pan: 0, ReverbSend: 0.02},
			InstrKeys: {
				GainDB: -3, Pan: -0.2, ReverbSend: 0.18,
				EQ: &EQConfig{Type: "peaking", FreqHz: 2500, GainDB: 1.5, Q: 0.9},
			},
			InstrPads: {
				GainDB: -6, Pan: 0.2, ReverbSend: 0.3,
				Chorus: &ChorusConfig{DepthMs: 6, RateHz: 0.6, Mix: 0.3},
			},
		},
		Reverb: ReverbConfig{RoomSize: 0.7, Damping: 0.4, PredelayMs: 12, Level: 0.8},
		Master: MasterConfig{
			HeadroomDB: 1.5,
			Saturation: &SaturationConfig{Drive: 1.2},
			Compressor: &CompressorConfig{
				ThresholdDB: -14, Ratio: 3, AttackMs: 12, ReleaseMs: 180,
				KneeDB: 6, LookaheadMs: 5,
			},
			Limiter: LimiterConfig{CeilingDB: -0.3, Oversample: 4},
		},
	}
}

// LoadMixConfig reads a mix config JSON file, falling back to defaults
// for an empty path
func LoadMixConfig(path string) (MixConfig, error) {
	if path == "" {
		return DefaultMixConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return MixConfig{}, fmt.Errorf("read mix config: %w", err)
	}
	cfg := DefaultMixConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return MixConfig{}, fmt.Errorf("parse mix config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return MixConfig{}, err
	}
	return cfg, nil
}

// Validate checks all recognized options at construction time
func (c *MixConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: mix config: %v", sferr.ErrSpecInvalid, err)
	}
	if c.Master.Limiter.Oversample == 0 {
		return fmt.Errorf("%w: limiter oversample must be >= 1", sferr.ErrSpecInvalid)
	}
	for name, tc := range c.Tracks {
		if tc.EQ != nil && tc.EQ.Q <= 0 {
			return fmt.Errorf("%w: track %q EQ requires q > 0", sferr.ErrSpecInvalid, name)
		}
	}
	return nil
}
