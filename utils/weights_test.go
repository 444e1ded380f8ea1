package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagtomodel/tensor"
)

func TestWeightsRoundTrip(t *testing.T) {
	src := tensor.New(2, 3)
	for i := range src.Data {
		src.Data[i] = float64(i) * 0.5
	}

	mw := NewModelWeights("lenet5")
	mw.Tensors["0.weight"] = TensorToWeightData("weight", src)

	path := filepath.Join(t.TempDir(), "weights.json")
	require.NoError(t, SaveWeights(path, mw))

	loaded, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, "lenet5", loaded.Model)
	require.Contains(t, loaded.Tensors, "0.weight")

	got := WeightDataToTensor(loaded.Tensors["0.weight"])
	assert.Equal(t, src.Shape, got.Shape)
	assert.Equal(t, src.Data, got.Data)
}

func TestLoadWeightsMissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestTensorToWeightDataCopies(t *testing.T) {
	src := tensor.New(2)
	src.Data[0] = 1
	wd := TensorToWeightData("bias", src)
	src.Data[0] = 99
	assert.Equal(t, 1.0, wd.Data[0])
}
