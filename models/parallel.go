package models

import (
	"diagtomodel/nn"
	"diagtomodel/nn/layers"
)

// NewParallelNet builds an inception-style classifier for 28x28
// single-channel inputs. After a shared stem, three parallel branches
// convolve the same feature map with 1x1, 3x3 and 5x5 kernels and their
// outputs are concatenated channel-wise before the dense head.
func NewParallelNet() *nn.Model {
	branch := func(k int) *nn.Sequential {
		return nn.NewSequential(
			layers.NewConv2D(32, 64, k, 1, layers.Same),
			mustActivation("relu"),
		)
	}
	net := nn.NewSequential(
		layers.NewConv2D(1, 32, 3, 1, layers.Same),
		mustActivation("relu"),
		layers.NewMaxPool2D(2, 2, layers.Valid),
		layers.NewConcat(branch(1), branch(3), branch(5)),
		layers.NewMaxPool2D(2, 2, layers.Valid),
		layers.NewFlatten(),
		layers.NewDense(192*7*7, 128),
		mustActivation("relu"),
		layers.NewDense(128, 10),
	)
	return nn.NewModel("parallel", []int{1, 28, 28}, 10, net)
}
