package layers

import "fmt"

// Padding selects the border behavior of convolution and pooling layers.
type Padding string

const (
	// Valid performs no padding; windows must fit entirely inside the input.
	Valid Padding = "valid"
	// Same pads so the output spatial size is ceil(in/stride).
	Same Padding = "same"
)

// outDim computes the output size of one spatial dimension.
func outDim(in, k, stride int, pad Padding) (int, error) {
	if stride <= 0 {
		return 0, fmt.Errorf("stride must be positive, got %d", stride)
	}
	switch pad {
	case Same:
		return (in + stride - 1) / stride, nil
	case Valid:
		if in < k {
			return 0, fmt.Errorf("input size %d smaller than window %d with valid padding", in, k)
		}
		return (in-k)/stride + 1, nil
	default:
		return 0, fmt.Errorf("unknown padding %q", pad)
	}
}

// padBefore returns the leading pad for one spatial dimension. The trailing
// pad takes the remainder, matching the usual ceil-mode convention.
func padBefore(in, k, stride int, pad Padding) int {
	if pad != Same {
		return 0
	}
	out := (in + stride - 1) / stride
	total := (out-1)*stride + k - in
	if total < 0 {
		total = 0
	}
	return total / 2
}
