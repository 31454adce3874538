package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultsToNotRun(t *testing.T) {
	s, err := Get(t.TempDir(), PhaseConfig)
	require.NoError(t, err)
	assert.Equal(t, NotRun, s)
}

func TestSetThenGet(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Set(dir, PhaseConfig, Pass))
	require.NoError(t, Set(dir, PhaseOutput, Fail))

	s, err := Get(dir, PhaseConfig)
	require.NoError(t, err)
	assert.Equal(t, Pass, s)

	s, err = Get(dir, PhaseOutput)
	require.NoError(t, err)
	assert.Equal(t, Fail, s)

	// Unset phases still read NotRun
	s, err = Get(dir, PhaseMemory)
	require.NoError(t, err)
	assert.Equal(t, NotRun, s)
}

func TestSetOverwrites(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, Set(dir, PhaseThroughput, Pend))
	require.NoError(t, Set(dir, PhaseThroughput, Pass))

	s, err := Get(dir, PhaseThroughput)
	require.NoError(t, err)
	assert.Equal(t, Pass, s)
}

func TestCorruptRecordIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{broken"), 0o644))

	_, err := Get(dir, PhaseConfig)
	require.Error(t, err)
}
