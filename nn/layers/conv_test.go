package layers

import (
	"testing"

	"diagtomodel/tensor"
)

func TestConv2DOutputShape(t *testing.T) {
	conv := NewConv2D(3, 96, 11, 4, Valid)
	got, err := conv.OutputShape([]int{3, 227, 227})
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	want := []int{96, 55, 55}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", got, want)
		}
	}

	if _, err := conv.OutputShape([]int{1, 227, 227}); err == nil {
		t.Error("expected error for channel mismatch")
	}
	if _, err := conv.OutputShape([]int{3, 227}); err == nil {
		t.Error("expected error for rank mismatch")
	}
}

func TestConv2DForwardKnown(t *testing.T) {
	// A 1x1 kernel with weight 2 and bias 1 scales and shifts every value.
	conv := NewConv2D(1, 1, 1, 1, Valid)
	conv.W.Data[0] = 2
	conv.B.Data[0] = 1

	in := tensor.New(1, 2, 2)
	copy(in.Data, []float64{1, 2, 3, 4})
	out, err := conv.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	want := []float64{3, 5, 7, 9}
	for i := range want {
		if !almostEqual(out.Data[i], want[i], 1e-12) {
			t.Errorf("out[%d] = %v, want %v", i, out.Data[i], want[i])
		}
	}
}

func TestConv2DForwardSamePadding(t *testing.T) {
	// An all-ones 3x3 kernel on a same-padded input sums each neighborhood.
	// The corner sees only 4 in-bounds cells.
	conv := NewConv2D(1, 1, 3, 1, Same)
	for i := range conv.W.Data {
		conv.W.Data[i] = 1
	}
	in := tensor.New(1, 3, 3)
	for i := range in.Data {
		in.Data[i] = 1
	}
	out, err := conv.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if out.Shape[1] != 3 || out.Shape[2] != 3 {
		t.Fatalf("output shape %v, want [1,3,3]", out.Shape)
	}
	if !almostEqual(out.Data[0], 4, 1e-12) {
		t.Errorf("corner = %v, want 4", out.Data[0])
	}
	if !almostEqual(out.Data[4], 9, 1e-12) {
		t.Errorf("center = %v, want 9", out.Data[4])
	}
}

func TestConv2DGradients(t *testing.T) {
	conv := NewConv2D(2, 3, 3, 2, Same)
	fillRandom(conv.W, 1)
	fillRandom(conv.B, 2)

	in := tensor.New(2, 5, 5)
	fillRandom(in, 3)

	out, err := conv.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	seed := tensor.New(out.Shape...)
	fillRandom(seed, 4)

	inputGrad, err := conv.Backward(seed)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	for i := range conv.W.Data {
		want := numericalGrad(conv, in, seed, conv.W, i)
		if !almostEqual(conv.gradW.Data[i], want, gradTol) {
			t.Fatalf("gradW[%d] = %v, want %v", i, conv.gradW.Data[i], want)
		}
	}
	for i := range conv.B.Data {
		want := numericalGrad(conv, in, seed, conv.B, i)
		if !almostEqual(conv.gradB.Data[i], want, gradTol) {
			t.Fatalf("gradB[%d] = %v, want %v", i, conv.gradB.Data[i], want)
		}
	}
	for i := range in.Data {
		want := numericalGrad(conv, in, seed, in, i)
		if !almostEqual(inputGrad.Data[i], want, gradTol) {
			t.Fatalf("inputGrad[%d] = %v, want %v", i, inputGrad.Data[i], want)
		}
	}
}

func TestConv2DParams(t *testing.T) {
	conv := NewConv2D(6, 16, 5, 1, Valid)
	if got := conv.Params(); got != 2416 {
		t.Errorf("Params = %d, want 2416", got)
	}
}
