package simple

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Config holds configurable hyperparameters for the mask model and training.
type Config struct {
	// HiddenSizes is the list of hidden layer sizes. Example: []int{64, 32}
	// If empty, a single hidden layer of size 64 will be used.
	HiddenSizes []int

	// InputDim is the length of a flattened image (height*width*channels).
	InputDim int

	// OutputDim is the length of a flattened mask (height*width).
	OutputDim int

	// LearningRate used by SGD (default 0.05).
	LearningRate float64

	// Epochs to train for (default 10).
	Epochs int

	// BatchSize for mini-batch updates (default 8).
	BatchSize int

	// Seed controls RNG for weight init and shuffling. If zero, time-based seed is used.
	Seed int64
}

// Dataset is the minimal interface this package requires from an image
// dataset. datasets.MoonCraterDataset satisfies it.
type Dataset interface {
	Len() int
	// Batch returns flattened images and masks for the provided indices.
	// Inputs are InputDim values in [0,1]; labels are OutputDim values of 0 or 1.
	Batch(indices []int) ([][]float32, [][]float32, error)
}

// Model is a small MLP predicting, for every pixel, the probability that it
// belongs to a crater rim. Hidden layers use ReLU, the output layer a sigmoid,
// and training minimises binary cross-entropy with mini-batch SGD.
type Model struct {
	// Config used for training / initialization.
	Config Config

	// layerSizes includes input size, hidden sizes, then output size.
	layerSizes []int

	// weights[l] is a matrix of shape [out][in] for layer l -> l+1
	weights [][][]float32

	// biases[l] is a vector of length out for layer l -> l+1
	biases [][]float32

	rng *rand.Rand
}

// NewModel creates a new Model with small random weights.
func NewModel(cfg Config) (*Model, error) {
	if cfg.InputDim <= 0 || cfg.OutputDim <= 0 {
		return nil, fmt.Errorf("input and output dimensions must be positive, got %d and %d", cfg.InputDim, cfg.OutputDim)
	}
	if len(cfg.HiddenSizes) == 0 {
		cfg.HiddenSizes = []int{64}
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.05
	}
	if cfg.Epochs == 0 {
		cfg.Epochs = 10
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 8
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	m := &Model{
		Config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
	m.layerSizes = append(append([]int{cfg.InputDim}, cfg.HiddenSizes...), cfg.OutputDim)

	layers := len(m.layerSizes) - 1
	m.weights = make([][][]float32, layers)
	m.biases = make([][]float32, layers)
	for l := range layers {
		in, out := m.layerSizes[l], m.layerSizes[l+1]
		// Xavier/Glorot uniform initialization
		limit := float32(math.Sqrt(6.0 / float64(in+out)))
		m.weights[l] = make([][]float32, out)
		for j := range out {
			row := make([]float32, in)
			for i := range row {
				row[i] = (m.rng.Float32()*2 - 1) * limit
			}
			m.weights[l][j] = row
		}
		m.biases[l] = make([]float32, out)
	}
	return m, nil
}

// NewModelForDataset reads the first example of ds to size the input and
// output layers, then calls NewModel.
func NewModelForDataset(cfg Config, ds Dataset) (*Model, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.New("dataset has no examples")
	}
	inputs, labels, err := ds.Batch([]int{0})
	if err != nil {
		return nil, fmt.Errorf("failed to read first example: %w", err)
	}
	cfg.InputDim = len(inputs[0])
	cfg.OutputDim = len(labels[0])
	return NewModel(cfg)
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// forward runs one input through the network, returning the pre-activations
// of every layer and the activations (acts[0] is the input, the last entry
// the sigmoid output).
func (m *Model) forward(input []float32) (preActs, acts [][]float32, err error) {
	if len(input) != m.layerSizes[0] {
		return nil, nil, fmt.Errorf("input has %d values, model expects %d", len(input), m.layerSizes[0])
	}
	layers := len(m.weights)
	acts = make([][]float32, layers+1)
	preActs = make([][]float32, layers)
	acts[0] = input

	for l := range layers {
		in := acts[l]
		pre := make([]float32, len(m.biases[l]))
		act := make([]float32, len(pre))
		for j, row := range m.weights[l] {
			sum := m.biases[l][j]
			for i, w := range row {
				sum += w * in[i]
			}
			pre[j] = sum
			switch {
			case l == layers-1:
				act[j] = sigmoid(sum)
			case sum > 0:
				act[j] = sum
			}
		}
		preActs[l] = pre
		acts[l+1] = act
	}
	return preActs, acts, nil
}

// PredictBatch returns per-pixel probabilities for a batch of flattened
// images.
func (m *Model) PredictBatch(inputs [][]float32) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		_, acts, err := m.forward(in)
		if err != nil {
			return nil, err
		}
		out[i] = acts[len(acts)-1]
	}
	return out, nil
}

// bce is the mean binary cross-entropy between probabilities and 0/1 labels.
func bce(probs, labels []float32) float64 {
	const eps = 1e-7
	var sum float64
	for i, p := range probs {
		q := math.Min(math.Max(float64(p), eps), 1-eps)
		if labels[i] > 0.5 {
			sum -= math.Log(q)
		} else {
			sum -= math.Log(1 - q)
		}
	}
	return sum / float64(len(probs))
}

// Loss returns the mean binary cross-entropy of the model over the examples
// of ds at indices.
func (m *Model) Loss(ds Dataset, indices []int) (float64, error) {
	if len(indices) == 0 {
		return 0, errors.New("no examples to evaluate")
	}
	inputs, labels, err := ds.Batch(indices)
	if err != nil {
		return 0, err
	}
	preds, err := m.PredictBatch(inputs)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := range preds {
		if len(labels[i]) != len(preds[i]) {
			return 0, fmt.Errorf("label %d has %d values, model outputs %d", i, len(labels[i]), len(preds[i]))
		}
		total += bce(preds[i], labels[i])
	}
	return total / float64(len(preds)), nil
}

// TrainWithDataset trains the model with mini-batch SGD and returns the mean
// training loss of every epoch.
func (m *Model) TrainWithDataset(ds Dataset) ([]float64, error) {
	if ds == nil {
		return nil, errors.New("dataset is nil")
	}
	n := ds.Len()
	if n == 0 {
		return nil, errors.New("dataset has no examples")
	}
	lr := float32(m.Config.LearningRate)

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	losses := make([]float64, 0, m.Config.Epochs)
	for range m.Config.Epochs {
		m.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		var epochLoss float64
		for start := 0; start < n; start += m.Config.BatchSize {
			end := min(start+m.Config.BatchSize, n)
			inputs, labels, err := ds.Batch(indices[start:end])
			if err != nil {
				return losses, err
			}
			loss, err := m.step(inputs, labels, lr)
			if err != nil {
				return losses, err
			}
			epochLoss += loss * float64(len(inputs))
		}
		losses = append(losses, epochLoss/float64(n))
	}
	return losses, nil
}

// step accumulates gradients over one mini-batch, applies the averaged SGD
// update and returns the batch's mean loss before the update.
func (m *Model) step(inputs, labels [][]float32, lr float32) (float64, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	layers := len(m.weights)
	gradW := make([][][]float32, layers)
	gradB := make([][]float32, layers)
	for l := range layers {
		gradW[l] = make([][]float32, len(m.weights[l]))
		for j := range gradW[l] {
			gradW[l][j] = make([]float32, len(m.weights[l][j]))
		}
		gradB[l] = make([]float32, len(m.biases[l]))
	}

	var loss float64
	for ex, in := range inputs {
		preActs, acts, err := m.forward(in)
		if err != nil {
			return 0, err
		}
		out := acts[layers]
		if len(labels[ex]) != len(out) {
			return 0, fmt.Errorf("label %d has %d values, model outputs %d", ex, len(labels[ex]), len(out))
		}
		loss += bce(out, labels[ex])

		// Sigmoid with cross-entropy: dLoss/dz = (p - y) / outputs.
		delta := make([]float32, len(out))
		scale := 1 / float32(len(out))
		for j := range out {
			delta[j] = (out[j] - labels[ex][j]) * scale
		}

		for l := layers - 1; l >= 0; l-- {
			inAct := acts[l]
			for j, d := range delta {
				gradB[l][j] += d
				gw := gradW[l][j]
				for i, a := range inAct {
					gw[i] += d * a
				}
			}
			if l == 0 {
				break
			}
			prev := make([]float32, len(inAct))
			for i := range prev {
				if preActs[l-1][i] <= 0 {
					continue
				}
				var sum float32
				for j, d := range delta {
					sum += m.weights[l][j][i] * d
				}
				prev[i] = sum
			}
			delta = prev
		}
	}

	inv := 1 / float32(len(inputs))
	for l := range layers {
		for j := range m.weights[l] {
			m.biases[l][j] -= lr * gradB[l][j] * inv
			row := m.weights[l][j]
			for i := range row {
				row[i] -= lr * gradW[l][j][i] * inv
			}
		}
	}
	return loss / float64(len(inputs)), nil
}
