package models

import (
	"diagtomodel/nn"
	"diagtomodel/nn/layers"
)

// NewAlexNet builds AlexNet for 227x227 RGB inputs: five convolutional
// stages with local response normalization after the first two, overlapping
// 3x3/stride-2 max pooling, and a 4096-4096-1000 dense head with dropout.
// Total trainable parameters: 62,378,344.
func NewAlexNet() *nn.Model {
	net := nn.NewSequential(
		layers.NewConv2D(3, 96, 11, 4, layers.Valid),
		mustActivation("relu"),
		layers.NewAlexNetLRN(),
		layers.NewMaxPool2D(3, 2, layers.Valid),

		layers.NewConv2D(96, 256, 5, 1, layers.Same),
		mustActivation("relu"),
		layers.NewAlexNetLRN(),
		layers.NewMaxPool2D(3, 2, layers.Valid),

		layers.NewConv2D(256, 384, 3, 1, layers.Same),
		mustActivation("relu"),
		layers.NewConv2D(384, 384, 3, 1, layers.Same),
		mustActivation("relu"),
		layers.NewConv2D(384, 256, 3, 1, layers.Same),
		mustActivation("relu"),
		layers.NewMaxPool2D(3, 2, layers.Valid),

		layers.NewFlatten(),
		layers.NewDense(9216, 4096),
		mustActivation("relu"),
		mustDropout(0.5),
		layers.NewDense(4096, 4096),
		mustActivation("relu"),
		mustDropout(0.5),
		layers.NewDense(4096, 1000),
	)
	return nn.NewModel("alexnet", []int{3, 227, 227}, 1000, net)
}
