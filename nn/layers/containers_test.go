package layers

import (
	"testing"

	"diagtomodel/nn"
	"diagtomodel/tensor"
)

// scaleLayer multiplies every value by a constant. Test helper for container
// topologies.
type scaleLayer struct {
	factor float64
}

func (s *scaleLayer) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	out := tensor.New(x.Shape...)
	for i, v := range x.Data {
		out.Data[i] = v * s.factor
	}
	return out, nil
}

func (s *scaleLayer) Backward(grad *tensor.Tensor) (*tensor.Tensor, error) {
	out := tensor.New(grad.Shape...)
	for i, v := range grad.Data {
		out.Data[i] = v * s.factor
	}
	return out, nil
}

func (s *scaleLayer) Update(float64) error { return nil }

func (s *scaleLayer) OutputShape(in []int) ([]int, error) {
	return append([]int(nil), in...), nil
}

func (s *scaleLayer) Params() int { return 0 }
func (s *scaleLayer) Tag() string { return "Scale" }

func TestConcatForwardBackward(t *testing.T) {
	c := NewConcat(
		nn.NewSequential(&scaleLayer{factor: 1}),
		nn.NewSequential(&scaleLayer{factor: 10}),
	)

	in := tensor.New(1, 1, 2)
	copy(in.Data, []float64{1, 2})

	out, err := c.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if out.Shape[0] != 2 {
		t.Fatalf("output shape %v, want 2 channels", out.Shape)
	}
	want := []float64{1, 2, 10, 20}
	for i := range want {
		if out.Data[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out.Data[i], want[i])
		}
	}

	grad, err := c.Backward(out)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// Branch gradients sum: 1*[1 2] + 10*[10 20].
	wantGrad := []float64{101, 202}
	for i := range wantGrad {
		if grad.Data[i] != wantGrad[i] {
			t.Errorf("grad[%d] = %v, want %v", i, grad.Data[i], wantGrad[i])
		}
	}
}

func TestConcatOutputShapeSumsChannels(t *testing.T) {
	branch := func(k int) *nn.Sequential {
		return nn.NewSequential(NewConv2D(32, 64, k, 1, Same))
	}
	c := NewConcat(branch(1), branch(3), branch(5))
	got, err := c.OutputShape([]int{32, 14, 14})
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	want := []int{192, 14, 14}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", got, want)
		}
	}
}

func TestConcatSpatialMismatch(t *testing.T) {
	c := NewConcat(
		nn.NewSequential(NewConv2D(1, 4, 3, 1, Same)),
		nn.NewSequential(NewConv2D(1, 4, 3, 1, Valid)),
	)
	if _, err := c.OutputShape([]int{1, 8, 8}); err == nil {
		t.Error("expected error for mismatched branch spatial sizes")
	}
}

func TestAddForwardBackward(t *testing.T) {
	a := NewAdd(
		nn.NewSequential(&scaleLayer{factor: 2}),
		nn.NewSequential(), // identity skip
	)

	in := tensor.New(1, 1, 2)
	copy(in.Data, []float64{1, 5})

	out, err := a.Forward(in)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	want := []float64{3, 15}
	for i := range want {
		if out.Data[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out.Data[i], want[i])
		}
	}

	grad, err := a.Backward(tensor.New(1, 1, 2))
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if !tensor.SameShape(grad, in) {
		t.Fatalf("gradient shape %v, want %v", grad.Shape, in.Shape)
	}

	seed := tensor.New(1, 1, 2)
	copy(seed.Data, []float64{1, 1})
	grad, err = a.Backward(seed)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// Scale contributes factor 2, the identity skip contributes 1.
	for i := range grad.Data {
		if grad.Data[i] != 3 {
			t.Errorf("grad[%d] = %v, want 3", i, grad.Data[i])
		}
	}
}

func TestAddShapeMismatch(t *testing.T) {
	a := NewAdd(
		nn.NewSequential(NewConv2D(1, 4, 3, 1, Same)),
		nn.NewSequential(NewConv2D(1, 8, 3, 1, Same)),
	)
	if _, err := a.OutputShape([]int{1, 8, 8}); err == nil {
		t.Error("expected error for mismatched branch channel counts")
	}
}

func TestAddParamsSumBranches(t *testing.T) {
	a := NewAdd(
		nn.NewSequential(NewConv2D(32, 32, 3, 1, Same)),
		nn.NewSequential(NewConv2D(32, 32, 5, 1, Same)),
		nn.NewSequential(),
	)
	want := (32*32*9 + 32) + (32*32*25 + 32)
	if got := a.Params(); got != want {
		t.Errorf("Params = %d, want %d", got, want)
	}
}
