// Package wav reads and writes 16-bit PCM WAV files. The writer can
// attach a LIST/INFO comment chunk used to embed the render hash.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Stereo is a pair of equal-length sample buffers in [-1, 1]
type Stereo struct {
	L []float64
	R []float64
}

// Len returns the frame count
func (s Stereo) Len() int {
	return len(s.L)
}

// WriteStereoFile writes a stereo buffer as 16-bit PCM. comment, if
// non-empty, lands in a LIST/INFO ICMT chunk. The file handle is closed
// on every path.
func WriteStereoFile(path string, s Stereo, sampleRate int, comment string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	if err := EncodeStereo(f, s, sampleRate, comment); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	return nil
}

// WriteMonoFile writes a mono buffer as 16-bit PCM
func WriteMonoFile(path string, samples []float64, sampleRate int, comment string) error {
	return WriteStereoFile(path, Stereo{L: samples, R: samples}, sampleRate, comment)
}

// EncodeStereo writes the RIFF structure to w
func EncodeStereo(w io.Writer, s Stereo, sampleRate int, comment string) error {
	if len(s.L) != len(s.R) {
		return fmt.Errorf("channel length mismatch: %d vs %d", len(s.L), len(s.R))
	}

	const (
		channels      = 2
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(s.L) * blockAlign

	var list bytes.Buffer
	if comment != "" {
		writeInfoChunk(&list, comment)
	}

	riffSize := 4 + (8 + 16) + (8 + dataSize) + list.Len()

	var hdr bytes.Buffer
	hdr.WriteString("RIFF")
	binary.Write(&hdr, binary.LittleEndian, uint32(riffSize))
	hdr.WriteString("WAVE")
	hdr.WriteString("fmt ")
	binary.Write(&hdr, binary.LittleEndian, uint32(16))
	binary.Write(&hdr, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&hdr, binary.LittleEndian, uint16(channels))
	binary.Write(&hdr, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&hdr, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&hdr, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&hdr, binary.LittleEndian, uint16(bitsPerSample))
	hdr.WriteString("data")
	binary.Write(&hdr, binary.LittleEndian, uint32(dataSize))
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}

	frames := make([]byte, dataSize)
	for i := range s.L {
		binary.LittleEndian.PutUint16(frames[i*4:], uint16(toPCM16(s.L[i])))
		binary.LittleEndian.PutUint16(frames[i*4+2:], uint16(toPCM16(s.R[i])))
	}
	if _, err := w.Write(frames); err != nil {
		return err
	}

	if list.Len() > 0 {
		if _, err := w.Write(list.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// writeInfoChunk appends a LIST/INFO chunk holding an ICMT comment
func writeInfoChunk(buf *bytes.Buffer, comment string) {
	payload := []byte(comment)
	if len(payload)%2 == 1 {
		payload = append(payload, 0) // chunks are word-aligned
	}
	buf.WriteString("LIST")
	binary.Write(buf, binary.LittleEndian, uint32(4+8+len(payload)))
	buf.WriteString("INFO")
	buf.WriteString("ICMT")
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
}

func toPCM16(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(math.Round(v * 32767))
}

// File is a decoded WAV: mono samples (stereo downmixed) plus rate
type File struct {
	Samples    []float64
	SampleRate int
	Comment    string
}

// ReadFile decodes a PCM WAV file, downmixing to mono. 16- and 24-bit
// PCM are supported; anything else is an explicit error.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}
	return Decode(data)
}

// Decode parses WAV bytes
func Decode(data []byte) (*File, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var (
		channels, bits int
		rate           int
		raw            []byte
		comment        string
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body:])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			rate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
		case "data":
			raw = data[body : body+size]
		case "LIST":
			if size >= 4 && string(data[body:body+4]) == "INFO" {
				comment = parseInfoComment(data[body+4 : body+size])
			}
		}
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if raw == nil || channels == 0 {
		return nil, fmt.Errorf("missing data or fmt chunk")
	}
	if bits != 16 && bits != 24 {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}

	bytesPerSample := bits / 8
	frame := bytesPerSample * channels
	n := len(raw) / frame
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			off := i*frame + c*bytesPerSample
			var v float64
			if bits == 16 {
				v = float64(int16(binary.LittleEndian.Uint16(raw[off:]))) / 32768
			} else {
				u := uint32(raw[off]) | uint32(raw[off+1])<<8 | uint32(raw[off+2])<<16
				v = float64(int32(u<<8)>>8) / 8388608
			}
			sum += v
		}
		samples[i] = sum / float64(channels)
	}

	return &File{Samples: samples, SampleRate: rate, Comment: comment}, nil
}

func parseInfoComment(body []byte) string {
	pos := 0
	for pos+8 <= len(body) {
		id := string(body[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(body[pos+4 : pos+8]))
		if pos+8+size > len(body) {
			break
		}
		if id == "ICMT" {
			return string(bytes.TrimRight(body[pos+8:pos+8+size], "\x00"))
		}
		pos += 8 + size
		if size%2 == 1 {
			pos++
		}
	}
	return ""
}
