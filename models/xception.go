package models

import (
	"diagtomodel/nn"
	"diagtomodel/nn/layers"
)

// convUnit is a convolution followed by batch normalization, with an
// optional trailing relu. Every convolution in this network uses same
// padding.
func convUnit(in, out, k, stride int, postRelu bool) []nn.Module {
	mods := []nn.Module{
		layers.NewConv2D(in, out, k, stride, layers.Same),
		layers.NewBatchNorm(out),
	}
	if postRelu {
		mods = append(mods, mustActivation("relu"))
	}
	return mods
}

// sepUnit is a 3x3 separable convolution followed by batch normalization,
// with optional relu on either side. Residual block bodies pre-activate,
// the exit tail post-activates.
func sepUnit(in, out int, preRelu, postRelu bool) []nn.Module {
	var mods []nn.Module
	if preRelu {
		mods = append(mods, mustActivation("relu"))
	}
	mods = append(mods,
		layers.NewSeparableConv2D(in, out, 3, 1, layers.Same),
		layers.NewBatchNorm(out),
	)
	if postRelu {
		mods = append(mods, mustActivation("relu"))
	}
	return mods
}

// NewXception builds the Xception classifier for 299x299 RGB inputs: an
// entry flow of three downsampling residual blocks, a middle flow of eight
// identity-skip residual blocks at 728 channels, and an exit flow ending in
// global average pooling and a 2048-1000 dense head.
func NewXception() *nn.Model {
	var mods []nn.Module

	// Entry flow: stem plus three residual blocks with strided 1x1
	// projections on the skip path.
	mods = append(mods, convUnit(3, 32, 3, 2, true)...)
	mods = append(mods, convUnit(32, 64, 3, 1, true)...)
	in := 64
	for _, filters := range []int{128, 256, 728} {
		body := nn.NewSequential()
		body.Layers = append(body.Layers, sepUnit(in, filters, true, false)...)
		body.Layers = append(body.Layers, sepUnit(filters, filters, true, false)...)
		body.Layers = append(body.Layers, layers.NewMaxPool2D(3, 2, layers.Same))

		skip := nn.NewSequential()
		skip.Layers = append(skip.Layers, convUnit(in, filters, 1, 2, false)...)

		mods = append(mods, layers.NewAdd(body, skip))
		in = filters
	}

	// Middle flow: eight residual blocks with identity skips.
	for i := 0; i < 8; i++ {
		body := nn.NewSequential()
		for j := 0; j < 3; j++ {
			body.Layers = append(body.Layers, sepUnit(728, 728, true, false)...)
		}
		mods = append(mods, layers.NewAdd(body, nn.NewSequential()))
	}

	// Exit flow: one more downsampling residual block, then the tail.
	body := nn.NewSequential()
	body.Layers = append(body.Layers, sepUnit(728, 728, true, false)...)
	body.Layers = append(body.Layers, sepUnit(728, 1024, true, false)...)
	body.Layers = append(body.Layers, layers.NewMaxPool2D(3, 2, layers.Same))
	skip := nn.NewSequential()
	skip.Layers = append(skip.Layers, convUnit(728, 1024, 1, 2, false)...)
	mods = append(mods, layers.NewAdd(body, skip))

	mods = append(mods, sepUnit(1024, 1536, false, true)...)
	mods = append(mods, sepUnit(1536, 2048, false, true)...)
	mods = append(mods,
		layers.NewGlobalAvgPool2D(),
		layers.NewDense(2048, 2048),
		mustActivation("relu"),
		layers.NewDense(2048, 1000),
	)

	return nn.NewModel("xception", []int{3, 299, 299}, 1000, nn.NewSequential(mods...))
}
