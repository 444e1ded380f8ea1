package layers

import (
	"math"
	"math/rand"

	"diagtomodel/nn"
	"diagtomodel/tensor"
)

const gradTol = 1e-5

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func fillRandom(t *tensor.Tensor, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range t.Data {
		t.Data[i] = rng.NormFloat64()
	}
}

// scalarLoss contracts a layer output against a fixed seed tensor, giving a
// scalar whose gradient with respect to the output is exactly the seed.
func scalarLoss(out, seed *tensor.Tensor) float64 {
	sum := 0.0
	for i := range out.Data {
		sum += out.Data[i] * seed.Data[i]
	}
	return sum
}

// numericalGrad estimates d(scalarLoss)/d(target[i]) by central differences,
// re-running the layer forward pass after each perturbation.
func numericalGrad(layer nn.Module, input, gradSeed, target *tensor.Tensor, i int) float64 {
	const eps = 1e-6
	orig := target.Data[i]

	target.Data[i] = orig + eps
	outPlus, err := layer.Forward(input)
	if err != nil {
		panic(err)
	}
	target.Data[i] = orig - eps
	outMinus, err := layer.Forward(input)
	if err != nil {
		panic(err)
	}
	target.Data[i] = orig

	return (scalarLoss(outPlus, gradSeed) - scalarLoss(outMinus, gradSeed)) / (2 * eps)
}
