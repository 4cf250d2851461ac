package midifile

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/dygy/songforge/internal/song"
	"github.com/dygy/songforge/internal/stems"
)

const ticksPerQuarter = 960

// Export writes a type-1 Standard MIDI File: a conductor track with
// tempo and meter meta events, then one track per instrument in
// generation order.
func Export(path string, spec *song.Spec, set stems.Set) error {
	s := smf.New()
	ticks := smf.MetricTicks(ticksPerQuarter)
	s.TimeFormat = ticks

	num, denom, err := song.ParseMeter(spec.Meter)
	if err != nil {
		return err
	}

	var conductor smf.Track
	conductor.Add(0, smf.MetaTrackSequenceName("conductor"))
	conductor.Add(0, smf.MetaTempo(spec.TempoBPM))
	conductor.Add(0, smf.MetaMeter(uint8(num), uint8(denom)))
	conductor.Close(0)
	if err := s.Add(conductor); err != nil {
		return fmt.Errorf("add conductor track: %w", err)
	}

	secPerTick := spec.SecPerBeat() / ticksPerQuarter
	for _, instr := range song.Instruments() {
		tr := buildTrack(instr, set[instr], secPerTick)
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("add %s track: %w", instr, err)
		}
	}

	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("write midi file: %w", err)
	}
	return nil
}

type midiEvent struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
	ch   uint8
}

func buildTrack(name string, notes []stems.Note, secPerTick float64) smf.Track {
	events := make([]midiEvent, 0, len(notes)*2)
	for _, n := range notes {
		start := uint32(n.Start/secPerTick + 0.5)
		end := uint32((n.Start+n.Dur)/secPerTick + 0.5)
		if end <= start {
			end = start + 1
		}
		vel := uint8(n.Velocity)
		key := uint8(n.Pitch)
		ch := uint8(n.Channel)
		events = append(events,
			midiEvent{tick: start, on: true, key: key, vel: vel, ch: ch},
			midiEvent{tick: end, on: false, key: key, ch: ch},
		)
	}
	// Offs sort before ons at the same tick so retriggered pitches do
	// not cancel themselves
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(name))
	last := uint32(0)
	for _, ev := range events {
		delta := ev.tick - last
		last = ev.tick
		if ev.on {
			tr.Add(delta, midi.NoteOn(ev.ch, ev.key, ev.vel))
		} else {
			tr.Add(delta, midi.NoteOff(ev.ch, ev.key))
		}
	}
	tr.Close(0)
	return tr
}

// ImportResult carries the note data reconstructed from an SMF
type ImportResult struct {
	TempoBPM float64
	MeterNum int
	MeterDen int
	Stems    stems.Set
}

// Import reads a Standard MIDI File back into per-instrument note
// lists. Tracks are matched to instruments by name; unnamed tracks
// fall back to channel mapping (9 is drums).
func Import(path string) (*ImportResult, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v", s.TimeFormat)
	}
	resolution := float64(ticks.Resolution())

	res := &ImportResult{
		TempoBPM: 120,
		MeterNum: 4,
		MeterDen: 4,
		Stems:    make(stems.Set),
	}

	for _, tr := range s.Tracks {
		var trackName string
		abs := uint32(0)
		open := make(map[[2]uint8]stems.Note) // (channel, key) -> pending note
		var notes []stems.Note

		for _, ev := range tr {
			abs += ev.Delta
			msg := ev.Message

			var bpm float64
			if msg.GetMetaTempo(&bpm) {
				res.TempoBPM = bpm
				continue
			}
			var num, denom uint8
			if msg.GetMetaMeter(&num, &denom) {
				res.MeterNum = int(num)
				res.MeterDen = int(denom)
				continue
			}
			var name string
			if msg.GetMetaTrackName(&name) {
				trackName = name
				continue
			}

			secPerTick := 60.0 / res.TempoBPM / resolution
			var ch, key, vel uint8
			if msg.GetNoteStart(&ch, &key, &vel) {
				open[[2]uint8{ch, key}] = stems.Note{
					Start:    float64(abs) * secPerTick,
					Pitch:    int(key),
					Velocity: int(vel),
					Channel:  int(ch),
				}
				continue
			}
			if msg.GetNoteEnd(&ch, &key) {
				id := [2]uint8{ch, key}
				if n, pending := open[id]; pending {
					n.Dur = float64(abs)*secPerTick - n.Start
					notes = append(notes, n)
					delete(open, id)
				}
			}
		}

		if len(notes) == 0 {
			continue
		}
		instr := instrumentFor(trackName, notes[0].Channel)
		res.Stems[instr] = append(res.Stems[instr], notes...)
	}

	res.Stems.SortAll()
	return res, nil
}

func instrumentFor(trackName string, channel int) string {
	for _, instr := range song.Instruments() {
		if trackName == instr {
			return instr
		}
	}
	switch channel {
	case 9:
		return song.InstrDrums
	case 0:
		return song.InstrBass
	case 1:
		return song.InstrKeys
	default:
		return song.InstrPads
	}
}
