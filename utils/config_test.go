package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainConfigRoundTrip(t *testing.T) {
	cfg := TrainConfig{
		Model:        "alexnet",
		Epochs:       3,
		LearningRate: 0.005,
		Samples:      50,
		Seed:         7,
		WeightsFile:  "out.json",
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadTrainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestLoadTrainConfigMissingFile(t *testing.T) {
	_, err := LoadTrainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateTrainConfig(t *testing.T) {
	known := []string{"lenet5", "alexnet"}

	cfg := DefaultTrainConfig()
	assert.NoError(t, ValidateTrainConfig(&cfg, known))

	bad := cfg
	bad.Model = "resnet"
	assert.Error(t, ValidateTrainConfig(&bad, known))

	bad = cfg
	bad.Epochs = 0
	assert.Error(t, ValidateTrainConfig(&bad, known))

	bad = cfg
	bad.LearningRate = -1
	assert.Error(t, ValidateTrainConfig(&bad, known))

	bad = cfg
	bad.Samples = 0
	assert.Error(t, ValidateTrainConfig(&bad, known))
}
