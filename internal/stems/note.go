package stems

import "sort"

// Note is an absolute-time note event in seconds
type Note struct {
	Start    float64 `json:"start"`
	Dur      float64 `json:"dur"`
	Pitch    int     `json:"pitch"`
	Velocity int     `json:"vel"`
	Channel  int     `json:"chan"`
}

// Set maps instrument name to its note list
type Set map[string][]Note

// Clone deep-copies the set so each pipeline stage owns its sequence
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for instr, notes := range s {
		cp := make([]Note, len(notes))
		copy(cp, notes)
		out[instr] = cp
	}
	return out
}

// SortAll orders every instrument's notes by start time
func (s Set) SortAll() {
	for _, notes := range s {
		sort.SliceStable(notes, func(i, j int) bool {
			if notes[i].Start != notes[j].Start {
				return notes[i].Start < notes[j].Start
			}
			return notes[i].Pitch < notes[j].Pitch
		})
	}
}

// TotalDuration returns the latest note end across all instruments
func (s Set) TotalDuration() float64 {
	max := 0.0
	for _, notes := range s {
		for _, n := range notes {
			if end := n.Start + n.Dur; end > max {
				max = end
			}
		}
	}
	return max
}

// Count returns the total number of notes across instruments
func (s Set) Count() int {
	total := 0
	for _, notes := range s {
		total += len(notes)
	}
	return total
}
