package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFileKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tempo: 90\ntimeSignature:\n  numerator: 3\n  denominator: 4\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(90.0, cfg.Tempo)
	assert.Equal(12, cfg.TimeSignature.EighthNotesPerMeasure())
	assert.Equal(16, cfg.MaxMeasures)
	assert.Equal(FusedDropReject, cfg.FusedDrop)
	assert.Len(cfg.Chapters, 3)
}

func TestValidateRepairsMalformedValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tempo = -1
	cfg.TimeSignature = TimeSignature{Numerator: 4, Denominator: 3}
	cfg.PitchUnits = 7
	cfg.FusedDrop = "explode"
	cfg.Audio.Output = "tape"
	cfg.Chapters = nil

	cfg.Validate()

	assert := assert.New(t)
	assert.Equal(120.0, cfg.Tempo)
	assert.Equal(TimeSignature{Numerator: 4, Denominator: 4}, cfg.TimeSignature)
	assert.Equal(1, cfg.PitchUnits)
	assert.Equal(FusedDropReject, cfg.FusedDrop)
	assert.Equal(OutputSynth, cfg.Audio.Output)
	assert.Len(cfg.Chapters, 3)
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.FusedDrop = FusedDropReplace
	cfg.Audio.Output = OutputMIDI
	cfg.Audio.Port = "IAC Driver Bus 1"

	require.NoError(t, cfg.SaveFile(path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEighthNotesPerMeasure(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(16, TimeSignature{4, 4}.EighthNotesPerMeasure())
	assert.Equal(12, TimeSignature{6, 8}.EighthNotesPerMeasure())
	assert.Equal(16, TimeSignature{2, 2}.EighthNotesPerMeasure())
	assert.Equal(12, TimeSignature{3, 4}.EighthNotesPerMeasure())
	assert.False(TimeSignature{0, 4}.Valid())
	assert.False(TimeSignature{5, 3}.Valid())
}
