package layers

import (
	"math"
	"testing"

	"diagtomodel/tensor"
)

func TestLRNForwardSingleChannel(t *testing.T) {
	lrn := NewAlexNetLRN()
	in := tensor.New(1, 1, 1)
	in.Data[0] = 3

	out, err := lrn.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	want := 3 / math.Pow(2+1e-4*9, 0.75)
	if !almostEqual(out.Data[0], want, 1e-12) {
		t.Errorf("out = %v, want %v", out.Data[0], want)
	}
}

func TestLRNWindowSpansNeighbors(t *testing.T) {
	// With depth 5 the window around channel 2 covers channels 0..4, while
	// channel 0 only sees 0..2. The normalizer therefore differs even when
	// every channel holds the same value.
	lrn := NewAlexNetLRN()
	in := tensor.New(5, 1, 1)
	for i := range in.Data {
		in.Data[i] = 1
	}
	out, err := lrn.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	edge := 1 / math.Pow(2+1e-4*3, 0.75)
	center := 1 / math.Pow(2+1e-4*5, 0.75)
	if !almostEqual(out.Data[0], edge, 1e-12) {
		t.Errorf("edge = %v, want %v", out.Data[0], edge)
	}
	if !almostEqual(out.Data[2], center, 1e-12) {
		t.Errorf("center = %v, want %v", out.Data[2], center)
	}
	if out.Data[0] <= out.Data[2] {
		t.Error("edge channel should be normalized less than center channel")
	}
}

func TestLRNGradients(t *testing.T) {
	lrn := NewAlexNetLRN()
	in := tensor.New(6, 2, 2)
	fillRandom(in, 11)

	out, err := lrn.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	seed := tensor.New(out.Shape...)
	fillRandom(seed, 12)

	inputGrad, err := lrn.Backward(seed)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	for i := range in.Data {
		want := numericalGrad(lrn, in, seed, in, i)
		if !almostEqual(inputGrad.Data[i], want, gradTol) {
			t.Fatalf("inputGrad[%d] = %v, want %v", i, inputGrad.Data[i], want)
		}
	}
}
