package pattern

// Event is a beat-relative note produced by a generator. Start and Dur
// are in quarter-note beats from the start of the section.
type Event struct {
	Start    float64
	Dur      float64
	Pitch    int // MIDI 0-127
	Velocity int // 1-127
	Channel  int
}

// MIDI channels per instrument; drums follow the GM convention
const (
	ChannelBass  = 0
	ChannelKeys  = 1
	ChannelPads  = 2
	ChannelDrums = 9
)

// GM-style drum pitches used by the generators and arranger
const (
	PitchKick      = 36
	PitchSnare     = 38
	PitchClosedHat = 42
	PitchOpenHat   = 46
	PitchTomLow    = 45
	PitchTomMid    = 47
	PitchTomHigh   = 50
	PitchSweep     = 49 // crash slot reused for noise sweeps
)
