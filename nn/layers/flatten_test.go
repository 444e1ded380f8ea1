package layers

import (
	"testing"

	"diagtomodel/tensor"
)

func TestFlattenRoundTrip(t *testing.T) {
	f := NewFlatten()
	in := tensor.New(2, 3, 4)
	for i := range in.Data {
		in.Data[i] = float64(i)
	}
	out, err := f.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(out.Shape) != 1 || out.Shape[0] != 24 {
		t.Fatalf("output shape %v, want [24]", out.Shape)
	}

	grad, err := f.Backward(out)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if !tensor.SameShape(grad, in) {
		t.Fatalf("gradient shape %v, want %v", grad.Shape, in.Shape)
	}
	for i := range in.Data {
		if grad.Data[i] != in.Data[i] {
			t.Errorf("grad[%d] = %v, want %v", i, grad.Data[i], in.Data[i])
		}
	}
}

func TestFlattenOutputShape(t *testing.T) {
	f := NewFlatten()
	got, err := f.OutputShape([]int{16, 5, 5})
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	if got[0] != 400 {
		t.Errorf("OutputShape = %v, want [400]", got)
	}
}
