package models

import (
	"diagtomodel/nn"
	"diagtomodel/nn/layers"
)

// NewLeNet5 builds the classic LeNet-5 digit classifier for 28x28
// single-channel inputs. Both convolutions use tanh, pooling is 2x2
// average pooling, and the head is the 120-84-10 dense stack.
// Total trainable parameters: 61,706.
func NewLeNet5() *nn.Model {
	net := nn.NewSequential(
		layers.NewConv2D(1, 6, 5, 1, layers.Same),
		mustActivation("tanh"),
		layers.NewAvgPool2D(2),
		layers.NewConv2D(6, 16, 5, 1, layers.Valid),
		mustActivation("tanh"),
		layers.NewAvgPool2D(2),
		layers.NewFlatten(),
		layers.NewDense(400, 120),
		mustActivation("tanh"),
		layers.NewDense(120, 84),
		mustActivation("tanh"),
		layers.NewDense(84, 10),
	)
	return nn.NewModel("lenet5", []int{1, 28, 28}, 10, net)
}
