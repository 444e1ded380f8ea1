package nn

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
	"time"

	"diagtomodel/tensor"
	"diagtomodel/utils"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model ties an architecture definition to a fixed input shape and class
// count. Constructors in the models package produce one Model per published
// architecture; Compile attaches the loss and learning rate before training.
type Model struct {
	Name       string
	InputShape []int
	Classes    int
	Net        *Sequential

	// Stats, when set, collects per-phase timings during TrainStep.
	Stats *utils.TimingStats

	lossFn       *CrossEntropyLoss
	learningRate float64
	compiled     bool
}

// NewModel wraps a layer graph into a Model.
func NewModel(name string, inputShape []int, classes int, net *Sequential) *Model {
	return &Model{
		Name:       name,
		InputShape: append([]int(nil), inputShape...),
		Classes:    classes,
		Net:        net,
	}
}

// Compile validates the graph by running shape inference end to end and
// attaches the loss and learning rate. The final layer must emit one logit
// per class.
func (m *Model) Compile(learningRate float64) error {
	if learningRate <= 0 {
		return fmt.Errorf("model %s: learning rate must be positive", m.Name)
	}
	out, err := m.Net.OutputShape(m.InputShape)
	if err != nil {
		return fmt.Errorf("model %s: %w", m.Name, err)
	}
	if len(out) != 1 || out[0] != m.Classes {
		return fmt.Errorf("model %s: output shape %v, want [%d]", m.Name, out, m.Classes)
	}
	m.lossFn = &CrossEntropyLoss{}
	m.learningRate = learningRate
	m.compiled = true
	return nil
}

// Forward runs the network and returns the logits.
func (m *Model) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	return m.Net.Forward(x)
}

// TrainStep performs one forward/backward/update cycle on a single sample
// and returns the cross-entropy loss.
func (m *Model) TrainStep(input, oneHotLabel *tensor.Tensor) (float64, error) {
	if !m.compiled {
		return 0, fmt.Errorf("model %s: TrainStep before Compile", m.Name)
	}

	forwardStart := time.Now()
	logits, err := m.Net.Forward(input)
	if err != nil {
		return 0, err
	}
	probs := Softmax(logits)
	if m.Stats != nil {
		m.Stats.ForwardPassTime += time.Since(forwardStart)
	}

	lossStart := time.Now()
	loss := m.lossFn.Loss(probs, oneHotLabel)
	if m.Stats != nil {
		m.Stats.LossComputationTime += time.Since(lossStart)
	}

	backwardStart := time.Now()
	grad := m.lossFn.Backward(probs, oneHotLabel)
	if _, err := m.Net.Backward(grad); err != nil {
		return 0, err
	}
	if m.Stats != nil {
		m.Stats.BackwardPassTime += time.Since(backwardStart)
	}

	updateStart := time.Now()
	if err := m.Net.Update(m.learningRate); err != nil {
		return 0, err
	}
	if m.Stats != nil {
		m.Stats.UpdateTime += time.Since(updateStart)
	}

	return loss, nil
}

// Predict runs inference and returns the winning class index along with the
// class probabilities. The network is switched to inference mode for the
// duration of the call.
func (m *Model) Predict(input *tensor.Tensor) (int, *tensor.Tensor, error) {
	SetTraining(m.Net, false)
	defer SetTraining(m.Net, true)

	logits, err := m.Net.Forward(input)
	if err != nil {
		return 0, nil, err
	}
	probs := Softmax(logits)

	best := 0
	highest := probs.Data[0]
	for i, p := range probs.Data {
		if p > highest {
			best = i
			highest = p
		}
	}
	return best, probs, nil
}

// SetTraining switches the whole network between training and inference mode.
func (m *Model) SetTraining(training bool) {
	SetTraining(m.Net, training)
}

// InitWeights initializes every trainable tensor: Glorot-normal for weights,
// ones for batch-norm scales and running variances, zeros for the rest.
func (m *Model) InitWeights(seed int64) {
	src := xrand.NewSource(uint64(seed))
	Walk(m.Net, func(_ string, mod Module) {
		p, ok := mod.(Parametrized)
		if !ok {
			return
		}
		tensors := p.ParamTensors()
		names := make([]string, 0, len(tensors))
		for name := range tensors {
			names = append(names, name)
		}
		sort.Strings(names) // deterministic init order
		for _, name := range names {
			t := tensors[name]
			switch name {
			case "weight", "depthwise_weight", "pointwise_weight":
				fanIn, fanOut := fans(t.Shape)
				dist := distuv.Normal{
					Mu:    0,
					Sigma: math.Sqrt(2.0 / float64(fanIn+fanOut)),
					Src:   src,
				}
				for i := range t.Data {
					t.Data[i] = dist.Rand()
				}
			case "gamma", "running_var":
				for i := range t.Data {
					t.Data[i] = 1
				}
			default:
				for i := range t.Data {
					t.Data[i] = 0
				}
			}
		}
	})
}

// fans derives fan-in/fan-out from a weight tensor shape:
// [out,in,kh,kw] for convolutions, [c,kh,kw] for depthwise kernels,
// [out,in] for dense layers.
func fans(shape []int) (int, int) {
	switch len(shape) {
	case 4:
		return shape[1] * shape[2] * shape[3], shape[0] * shape[2] * shape[3]
	case 3:
		return shape[1] * shape[2], shape[1] * shape[2]
	case 2:
		return shape[1], shape[0]
	default:
		return 1, 1
	}
}

// ExportWeights snapshots every trainable tensor keyed by module path.
func (m *Model) ExportWeights() *utils.ModelWeights {
	mw := utils.NewModelWeights(m.Name)
	Walk(m.Net, func(path string, mod Module) {
		p, ok := mod.(Parametrized)
		if !ok {
			return
		}
		for name, t := range p.ParamTensors() {
			mw.Tensors[weightKey(path, name)] = utils.TensorToWeightData(name, t)
		}
	})
	return mw
}

// LoadWeights restores a snapshot produced by ExportWeights. Every tensor in
// the model must be present with a matching shape.
func (m *Model) LoadWeights(mw *utils.ModelWeights) error {
	var loadErr error
	Walk(m.Net, func(path string, mod Module) {
		if loadErr != nil {
			return
		}
		p, ok := mod.(Parametrized)
		if !ok {
			return
		}
		for name, t := range p.ParamTensors() {
			key := weightKey(path, name)
			wd, ok := mw.Tensors[key]
			if !ok {
				loadErr = fmt.Errorf("model %s: missing tensor %q in snapshot", m.Name, key)
				return
			}
			if len(wd.Data) != len(t.Data) {
				loadErr = fmt.Errorf("model %s: tensor %q has %d values, want %d", m.Name, key, len(wd.Data), len(t.Data))
				return
			}
			copy(t.Data, wd.Data)
		}
	})
	return loadErr
}

func weightKey(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// Summary writes a per-layer table of output shapes and parameter counts,
// walking the top-level layer chain.
func (m *Model) Summary(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Model: %s\n", m.Name)
	fmt.Fprintf(tw, "#\tLayer\tOutput Shape\tParams\n")
	fmt.Fprintf(tw, "\tInput\t%v\t0\n", m.InputShape)

	shape := m.InputShape
	total := 0
	for i, layer := range m.Net.Layers {
		var err error
		shape, err = layer.OutputShape(shape)
		if err != nil {
			return fmt.Errorf("model %s: layer %d (%s): %w", m.Name, i, layer.Tag(), err)
		}
		fmt.Fprintf(tw, "%d\t%s\t%v\t%d\n", i, layer.Tag(), shape, layer.Params())
		total += layer.Params()
	}
	fmt.Fprintf(tw, "\tTotal\t\t%d\n", total)
	return tw.Flush()
}
