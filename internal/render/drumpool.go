package render

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	sferr "github.com/dygy/songforge/internal/errors"
	"github.com/dygy/songforge/internal/stems"
	"github.com/dygy/songforge/internal/wav"
)

// DrumPool maps drum pitches to pools of interchangeable samples,
// cycled round-robin so repeated hits never reuse the exact same
// recording back to back.
type DrumPool struct {
	pools map[int][]sampleBuf
	next  map[int]int
}

type sampleBuf struct {
	data []float64
	rate int
}

// LoadDrumPool scans a directory for samples named "<pitch>_*.wav"
// (e.g. 36_kick_a.wav, 38_snare_tight.wav) and groups them per pitch
func LoadDrumPool(dir string) (*DrumPool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*_*.wav"))
	if err != nil {
		return nil, fmt.Errorf("scan drum dir: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no drum samples in %s", sferr.ErrAssetMissing, dir)
	}
	sort.Strings(matches) // stable round-robin order

	pool := &DrumPool{pools: make(map[int][]sampleBuf), next: make(map[int]int)}
	for _, path := range matches {
		base := filepath.Base(path)
		prefix, _, _ := strings.Cut(base, "_")
		pitch, err := strconv.Atoi(prefix)
		if err != nil {
			continue // not a pitch-mapped sample
		}
		f, err := wav.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", sferr.ErrAssetMissing, path, err)
		}
		pool.pools[pitch] = append(pool.pools[pitch], sampleBuf{data: f.Samples, rate: f.SampleRate})
	}
	if len(pool.pools) == 0 {
		return nil, fmt.Errorf("%w: no pitch-mapped samples in %s", sferr.ErrAssetMissing, dir)
	}
	return pool, nil
}

// take returns the next sample for a pitch, advancing the round-robin
func (p *DrumPool) take(pitch int) (sampleBuf, error) {
	bufs := p.pools[pitch]
	if len(bufs) == 0 {
		return sampleBuf{}, fmt.Errorf("%w: drum pitch %d", sferr.ErrNoRegion, pitch)
	}
	i := p.next[pitch] % len(bufs)
	p.next[pitch]++
	return bufs[i], nil
}

// RenderDrums renders drum notes from the pool at their native pitch
// (no repitching), velocity-scaled
func (p *DrumPool) RenderDrums(notes []stems.Note, sampleRate int) ([]float64, error) {
	out := make([]float64, bufferLen(notes, sampleRate))
	for _, n := range notes {
		buf, err := p.take(n.Pitch)
		if err != nil {
			return nil, err
		}
		ratio := float64(buf.rate) / float64(sampleRate)
		gain := float64(n.Velocity) / 127.0
		mixAt(out, buf.data, int(n.Start*float64(sampleRate)), ratio, gain, 0)
	}
	softNormalize(out)
	return out, nil
}
