package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "0f3a9c1e5b7d2468ace013579bdf2468ace013579bdf2468ace013579bdf2468"

func writeFixture(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestPutGet(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	master := writeFixture(t, "master.wav", 4096)
	midi := writeFixture(t, "song.mid", 256)

	put, err := c.Put(testHash, master, midi, 12.5, 44100)
	require.NoError(t, err)
	assert.NotEqual(t, master, put.MasterPath, "cache keeps its own copy")

	got, ok := c.Get(testHash)
	require.True(t, ok)
	assert.Equal(t, testHash, got.Hash)
	assert.Equal(t, 12.5, got.DurationS)
	assert.Equal(t, 44100, got.SampleRate)
	assert.FileExists(t, got.MasterPath)
	assert.FileExists(t, got.MIDIPath)
}

func TestGet_Miss(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get(testHash)
	assert.False(t, ok)
}

func TestGet_EvictedMaster(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	master := writeFixture(t, "master.wav", 1024)
	entry, err := c.Put(testHash, master, "", 3, 44100)
	require.NoError(t, err)

	// A hit with the audio gone would hand out a dangling path
	require.NoError(t, os.Remove(entry.MasterPath))
	_, ok := c.Get(testHash)
	assert.False(t, ok)
}

func TestPut_MissingMIDIIsSkipped(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	master := writeFixture(t, "master.wav", 1024)
	entry, err := c.Put(testHash, master, "/nowhere/song.mid", 3, 44100)
	require.NoError(t, err)
	assert.Empty(t, entry.MIDIPath)
}

func TestSizeAndClear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	size, count, err := c.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Zero(t, count)

	master := writeFixture(t, "master.wav", 2048)
	_, err = c.Put(testHash, master, "", 1, 44100)
	require.NoError(t, err)

	size, count, err = c.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Greater(t, size, int64(2048))

	require.NoError(t, c.Clear())
	size, count, err = c.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
	assert.Zero(t, count)
}
