package qr_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zettahub/internal/qr"
)

func TestPayloadFormat(t *testing.T) {
	got := qr.Payload("r-1", "Ava", "Hack Night")
	assert.Equal(t, "Registration ID: r-1\nName: Ava\nEvent: Hack Night", got)
}

func TestEncodeWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	enc := qr.NewEncoder(dir, "/qr_codes")

	locator, err := enc.Encode("r-1", "Ava", "Hack Night")
	require.NoError(t, err)
	assert.Equal(t, "/qr_codes/r-1.png", locator)

	data, err := os.ReadFile(filepath.Join(dir, "r-1.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "artifact should be a png")
}

func TestEncodeCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "qr_codes")
	enc := qr.NewEncoder(dir, "/qr_codes")

	_, err := enc.Encode("r-2", "Ava", "Hack Night")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "r-2.png"))
	assert.NoError(t, err)
}

func TestEncodeOverwritesDeterministically(t *testing.T) {
	dir := t.TempDir()
	enc := qr.NewEncoder(dir, "/qr_codes")

	first, err := enc.Encode("r-3", "Ava", "Hack Night")
	require.NoError(t, err)
	second, err := enc.Encode("r-3", "Ava", "Hack Night")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEncodeUnwritableRoot(t *testing.T) {
	// A regular file where the artifact root should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	enc := qr.NewEncoder(filepath.Join(blocker, "qr_codes"), "/qr_codes")
	_, err := enc.Encode("r-4", "Ava", "Hack Night")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	enc := qr.NewEncoder(dir, "/qr_codes")

	_, err := enc.Encode("r-5", "Ava", "Hack Night")
	require.NoError(t, err)

	require.NoError(t, enc.Remove("r-5"))
	_, err = os.Stat(filepath.Join(dir, "r-5.png"))
	assert.True(t, os.IsNotExist(err))

	// Removing an id that has no artifact is not an error.
	assert.NoError(t, enc.Remove("never-existed"))
}
