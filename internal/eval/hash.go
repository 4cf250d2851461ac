package eval

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dygy/songforge/internal/song"
)

// HashInput collects everything a render's output depends on. Two
// renders with equal inputs produce the same audio and the same hash.
type HashInput struct {
	Spec       *song.Spec       `json:"spec"`
	Mix        song.MixConfig   `json:"mix"`
	Style      song.StyleConfig `json:"style"`
	AssetPaths []string         `json:"asset_paths"`
	Seed       int64            `json:"seed"`
	TargetSec  float64          `json:"target_sec"`
	Commit     string           `json:"commit"`
}

// RenderHash computes the SHA-256 over the canonical serialization of
// the render inputs. Asset paths are sorted so map iteration order
// never leaks into the digest.
func RenderHash(in HashInput) (string, error) {
	paths := make([]string, len(in.AssetPaths))
	copy(paths, in.AssetPaths)
	sort.Strings(paths)
	in.AssetPaths = paths

	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("serialize hash input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
