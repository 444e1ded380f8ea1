package layers

import (
	"testing"

	"diagtomodel/tensor"
)

func TestSeparableConv2DOutputShape(t *testing.T) {
	sep := NewSeparableConv2D(64, 128, 3, 1, Same)
	got, err := sep.OutputShape([]int{64, 150, 150})
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	want := []int{128, 150, 150}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", got, want)
		}
	}
}

func TestSeparableConv2DParams(t *testing.T) {
	sep := NewSeparableConv2D(728, 728, 3, 1, Same)
	// depthwise 728*9 + pointwise 728*728 + bias 728
	want := 728*9 + 728*728 + 728
	if got := sep.Params(); got != want {
		t.Errorf("Params = %d, want %d", got, want)
	}
}

func TestSeparableConv2DMatchesTwoStagePass(t *testing.T) {
	// The separable layer must equal its two factors run in sequence: a
	// per-channel depthwise convolution and a 1x1 projection.
	sep := NewSeparableConv2D(2, 3, 3, 1, Same)
	fillRandom(sep.DW, 1)
	fillRandom(sep.PW, 2)
	fillRandom(sep.B, 3)

	in := tensor.New(2, 4, 4)
	fillRandom(in, 4)

	got, err := sep.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	// Depthwise stage as two single-channel convolutions.
	mid := tensor.New(2, 4, 4)
	for c := 0; c < 2; c++ {
		conv := NewConv2D(1, 1, 3, 1, Same)
		copy(conv.W.Data, sep.DW.Data[c*9:(c+1)*9])
		chIn := tensor.New(1, 4, 4)
		copy(chIn.Data, in.Data[c*16:(c+1)*16])
		chOut, err := conv.Forward(chIn)
		if err != nil {
			t.Fatalf("depthwise stage: %v", err)
		}
		copy(mid.Data[c*16:(c+1)*16], chOut.Data)
	}

	// Pointwise stage as a 1x1 convolution.
	point := NewConv2D(2, 3, 1, 1, Valid)
	copy(point.W.Data, sep.PW.Data)
	copy(point.B.Data, sep.B.Data)
	want, err := point.Forward(mid)
	if err != nil {
		t.Fatalf("pointwise stage: %v", err)
	}

	if !tensor.SameShape(got, want) {
		t.Fatalf("shape %v, want %v", got.Shape, want.Shape)
	}
	for i := range want.Data {
		if !almostEqual(got.Data[i], want.Data[i], 1e-9) {
			t.Fatalf("out[%d] = %v, want %v", i, got.Data[i], want.Data[i])
		}
	}
}

func TestSeparableConv2DGradients(t *testing.T) {
	sep := NewSeparableConv2D(2, 2, 3, 1, Same)
	fillRandom(sep.DW, 5)
	fillRandom(sep.PW, 6)
	fillRandom(sep.B, 7)

	in := tensor.New(2, 3, 3)
	fillRandom(in, 8)

	out, err := sep.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	seed := tensor.New(out.Shape...)
	fillRandom(seed, 9)

	inputGrad, err := sep.Backward(seed)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	for i := range sep.DW.Data {
		want := numericalGrad(sep, in, seed, sep.DW, i)
		if !almostEqual(sep.gradDW.Data[i], want, gradTol) {
			t.Fatalf("gradDW[%d] = %v, want %v", i, sep.gradDW.Data[i], want)
		}
	}
	for i := range sep.PW.Data {
		want := numericalGrad(sep, in, seed, sep.PW, i)
		if !almostEqual(sep.gradPW.Data[i], want, gradTol) {
			t.Fatalf("gradPW[%d] = %v, want %v", i, sep.gradPW.Data[i], want)
		}
	}
	for i := range in.Data {
		want := numericalGrad(sep, in, seed, in, i)
		if !almostEqual(inputGrad.Data[i], want, gradTol) {
			t.Fatalf("inputGrad[%d] = %v, want %v", i, inputGrad.Data[i], want)
		}
	}
}
