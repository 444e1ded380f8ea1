package layers

import "testing"

func TestOutDimValid(t *testing.T) {
	cases := []struct {
		in, k, stride int
		want          int
	}{
		{28, 5, 1, 24},
		{227, 11, 4, 55},
		{13, 3, 2, 6},
		{5, 5, 1, 1},
	}
	for _, c := range cases {
		got, err := outDim(c.in, c.k, c.stride, Valid)
		if err != nil {
			t.Fatalf("outDim(%d,%d,%d,valid): %v", c.in, c.k, c.stride, err)
		}
		if got != c.want {
			t.Errorf("outDim(%d,%d,%d,valid) = %d, want %d", c.in, c.k, c.stride, got, c.want)
		}
	}
}

func TestOutDimSame(t *testing.T) {
	cases := []struct {
		in, k, stride int
		want          int
	}{
		{28, 5, 1, 28},
		{299, 3, 2, 150},
		{147, 3, 2, 74},
		{19, 3, 2, 10},
	}
	for _, c := range cases {
		got, err := outDim(c.in, c.k, c.stride, Same)
		if err != nil {
			t.Fatalf("outDim(%d,%d,%d,same): %v", c.in, c.k, c.stride, err)
		}
		if got != c.want {
			t.Errorf("outDim(%d,%d,%d,same) = %d, want %d", c.in, c.k, c.stride, got, c.want)
		}
	}
}

func TestOutDimTooSmall(t *testing.T) {
	if _, err := outDim(3, 5, 1, Valid); err == nil {
		t.Error("expected error for kernel larger than input")
	}
}

func TestPadBeforeSame(t *testing.T) {
	// 5x5 kernel at stride 1 pads 2 on the leading side.
	if got := padBefore(28, 5, 1, Same); got != 2 {
		t.Errorf("padBefore(28,5,1,same) = %d, want 2", got)
	}
	if got := padBefore(28, 5, 1, Valid); got != 0 {
		t.Errorf("padBefore(28,5,1,valid) = %d, want 0", got)
	}
}
