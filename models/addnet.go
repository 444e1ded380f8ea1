package models

import (
	"diagtomodel/nn"
	"diagtomodel/nn/layers"
)

// NewAddNet builds a residual classifier for 28x28 single-channel inputs.
// Each block sums three paths over the same 32-channel feature map: a 3x3
// convolution, a 5x5 convolution, and an identity skip.
func NewAddNet() *nn.Model {
	block := func() *layers.Add {
		return layers.NewAdd(
			nn.NewSequential(layers.NewConv2D(32, 32, 3, 1, layers.Same)),
			nn.NewSequential(layers.NewConv2D(32, 32, 5, 1, layers.Same)),
			nn.NewSequential(), // identity skip
		)
	}
	net := nn.NewSequential(
		layers.NewConv2D(1, 32, 3, 1, layers.Same),
		mustActivation("relu"),
		block(),
		mustActivation("relu"),
		block(),
		mustActivation("relu"),
		layers.NewMaxPool2D(2, 2, layers.Valid),
		layers.NewFlatten(),
		layers.NewDense(32*14*14, 64),
		mustActivation("relu"),
		layers.NewDense(64, 10),
	)
	return nn.NewModel("addnet", []int{1, 28, 28}, 10, net)
}
