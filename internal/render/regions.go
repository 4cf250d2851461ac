package render

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sferr "github.com/dygy/songforge/internal/errors"
	"github.com/dygy/songforge/internal/wav"
)

// Region maps a key range to one sample, SFZ-style
type Region struct {
	LoKey      int
	HiKey      int
	Center     int // pitch_keycenter
	SamplePath string
	Data       []float64
	Rate       int
}

// Instrument is a loaded region-list instrument
type Instrument struct {
	Name    string
	Regions []Region
}

// LoadInstrument parses a region-list file. Each non-comment line reads
//
//	region lokey=36 hikey=48 pitch_keycenter=40 sample=piano_c3.wav
//
// with sample paths relative to the file. Every referenced sample must
// load; a missing asset fails the whole instrument.
func LoadInstrument(path string) (*Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sferr.ErrAssetMissing, path)
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	inst := &Instrument{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] != "region" {
			return nil, fmt.Errorf("%s:%d: unknown directive %q", path, lineNo, fields[0])
		}

		region := Region{LoKey: 0, HiKey: 127, Center: 60}
		for _, field := range fields[1:] {
			k, v, ok := strings.Cut(field, "=")
			if !ok {
				return nil, fmt.Errorf("%s:%d: malformed field %q", path, lineNo, field)
			}
			switch k {
			case "lokey":
				region.LoKey, err = strconv.Atoi(v)
			case "hikey":
				region.HiKey, err = strconv.Atoi(v)
			case "pitch_keycenter":
				region.Center, err = strconv.Atoi(v)
			case "sample":
				region.SamplePath = filepath.Join(baseDir, v)
			default:
				return nil, fmt.Errorf("%s:%d: unknown field %q", path, lineNo, k)
			}
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad value in %q: %w", path, lineNo, field, err)
			}
		}
		if region.SamplePath == "" {
			return nil, fmt.Errorf("%s:%d: region missing sample=", path, lineNo)
		}

		sampleFile, err := wav.ReadFile(region.SamplePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", sferr.ErrAssetMissing, region.SamplePath, err)
		}
		region.Data = sampleFile.Samples
		region.Rate = sampleFile.SampleRate
		inst.Regions = append(inst.Regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(inst.Regions) == 0 {
		return nil, fmt.Errorf("%s: no regions defined", path)
	}
	return inst, nil
}

// RegionFor returns the region covering a MIDI pitch. An uncovered
// pitch is an error: an unplayable note must fail the render, not
// silently vanish.
func (in *Instrument) RegionFor(pitch int) (*Region, error) {
	for i := range in.Regions {
		if pitch >= in.Regions[i].LoKey && pitch <= in.Regions[i].HiKey {
			return &in.Regions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s pitch %d", sferr.ErrNoRegion, in.Name, pitch)
}
