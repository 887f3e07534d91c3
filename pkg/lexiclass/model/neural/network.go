package neural

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/model"
)

// Kind identifies networks in serialized classifier state.
const Kind = "neural/sigmoid"

func init() {
	model.Register(Kind, func(data []byte) (model.Model, error) {
		return Decode(data)
	})
}

// Config holds the architecture and training hyperparameters.
type Config struct {
	// HiddenLayers lists hidden layer sizes. Empty means a single layer of
	// max(3, inputs/2) units.
	HiddenLayers   []int
	Iterations     int
	LearningRate   float64
	Momentum       float64
	ErrorThreshold float64
	// Seed makes weight initialization, and so training, reproducible.
	Seed int64
}

// DefaultConfig returns the stock hyperparameters.
func DefaultConfig() Config {
	return Config{
		Iterations:     20000,
		LearningRate:   0.3,
		Momentum:       0.1,
		ErrorThreshold: 0.005,
		Seed:           1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Iterations <= 0 {
		c.Iterations = d.Iterations
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Momentum < 0 {
		c.Momentum = d.Momentum
	}
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = d.ErrorThreshold
	}
	return c
}

// Trainer fits sigmoid feed-forward networks with backpropagation and momentum.
type Trainer struct {
	cfg Config
}

// NewTrainer creates a trainer. Non-positive Iterations, LearningRate and
// ErrorThreshold take defaults, as does a negative Momentum.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (t *Trainer) Config() Config {
	return t.cfg
}

// Fit trains a fresh network on pairs until the mean squared error drops
// below the threshold or the iteration budget is spent.
func (t *Trainer) Fit(ctx context.Context, pairs []model.Pair) (model.Model, model.Report, error) {
	if len(pairs) == 0 {
		return nil, model.Report{}, fmt.Errorf("%w: no training pairs", internalerr.ErrEmptyTrainingSet)
	}
	inputs, outputs := len(pairs[0].Input), len(pairs[0].Output)
	if inputs == 0 || outputs == 0 {
		return nil, model.Report{}, fmt.Errorf("%w: zero-width vectors", internalerr.ErrEmptyTrainingSet)
	}
	for i, p := range pairs {
		if len(p.Input) != inputs || len(p.Output) != outputs {
			return nil, model.Report{}, fmt.Errorf("%w: pair %d has widths %d/%d, want %d/%d",
				internalerr.ErrInvalidInput, i, len(p.Input), len(p.Output), inputs, outputs)
		}
	}

	sizes := []int{inputs}
	if len(t.cfg.HiddenLayers) == 0 {
		sizes = append(sizes, max(3, inputs/2))
	} else {
		for _, h := range t.cfg.HiddenLayers {
			if h <= 0 {
				return nil, model.Report{}, fmt.Errorf("%w: hidden layer size %d", internalerr.ErrInvalidConfig, h)
			}
			sizes = append(sizes, h)
		}
	}
	sizes = append(sizes, outputs)

	n := newNetwork(sizes, rand.New(rand.NewSource(t.cfg.Seed)))
	st := newTrainState(sizes)

	report := model.Report{Error: 1}
	for report.Iterations < t.cfg.Iterations && report.Error > t.cfg.ErrorThreshold {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		var sum float64
		for _, p := range pairs {
			sum += n.trainPattern(st, p, t.cfg.LearningRate, t.cfg.Momentum)
		}
		report.Error = sum / float64(len(pairs))
		report.Iterations++
	}
	return n, report, nil
}

// Network is a trained sigmoid feed-forward network.
type Network struct {
	sizes []int
	// weights[l][j][k] connects node k of layer l-1 to node j of layer l.
	weights [][][]float64
	biases  [][]float64
}

func newNetwork(sizes []int, rng *rand.Rand) *Network {
	n := &Network{
		sizes:   append([]int(nil), sizes...),
		weights: make([][][]float64, len(sizes)),
		biases:  make([][]float64, len(sizes)),
	}
	for l := 1; l < len(sizes); l++ {
		n.biases[l] = make([]float64, sizes[l])
		n.weights[l] = make([][]float64, sizes[l])
		for j := range n.weights[l] {
			n.biases[l][j] = randomWeight(rng)
			n.weights[l][j] = make([]float64, sizes[l-1])
			for k := range n.weights[l][j] {
				n.weights[l][j][k] = randomWeight(rng)
			}
		}
	}
	return n
}

func randomWeight(rng *rand.Rand) float64 {
	return rng.Float64()*0.4 - 0.2
}

// Kind implements model.Model.
func (n *Network) Kind() string { return Kind }

// Sizes returns the layer sizes, input layer first.
func (n *Network) Sizes() []int {
	return append([]int(nil), n.sizes...)
}

// Predict runs input through the network.
func (n *Network) Predict(input []float64) ([]float64, error) {
	if len(input) != n.sizes[0] {
		return nil, fmt.Errorf("%w: input width %d, network expects %d", internalerr.ErrInvalidInput, len(input), n.sizes[0])
	}
	outs := n.forward(input)
	last := outs[len(outs)-1]
	return append([]float64(nil), last...), nil
}

// forward returns the activations of every layer.
func (n *Network) forward(input []float64) [][]float64 {
	outs := make([][]float64, len(n.sizes))
	outs[0] = input
	for l := 1; l < len(n.sizes); l++ {
		outs[l] = make([]float64, n.sizes[l])
		for j, w := range n.weights[l] {
			sum := n.biases[l][j]
			for k, x := range outs[l-1] {
				sum += w[k] * x
			}
			outs[l][j] = sigmoid(sum)
		}
	}
	return outs
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// trainState carries per-run scratch buffers and momentum history.
type trainState struct {
	deltas  [][]float64
	changes [][][]float64
}

func newTrainState(sizes []int) *trainState {
	st := &trainState{
		deltas:  make([][]float64, len(sizes)),
		changes: make([][][]float64, len(sizes)),
	}
	for l := 1; l < len(sizes); l++ {
		st.deltas[l] = make([]float64, sizes[l])
		st.changes[l] = make([][]float64, sizes[l])
		for j := range st.changes[l] {
			st.changes[l][j] = make([]float64, sizes[l-1])
		}
	}
	return st
}

// trainPattern runs one backpropagation step and returns the pattern's MSE.
func (n *Network) trainPattern(st *trainState, p model.Pair, rate, momentum float64) float64 {
	outs := n.forward(p.Input)
	last := len(n.sizes) - 1

	var mse float64
	for l := last; l > 0; l-- {
		for j := range st.deltas[l] {
			out := outs[l][j]
			var e float64
			if l == last {
				e = p.Output[j] - out
				mse += e * e
			} else {
				for k, d := range st.deltas[l+1] {
					e += d * n.weights[l+1][k][j]
				}
			}
			st.deltas[l][j] = e * out * (1 - out)
		}
	}

	for l := 1; l <= last; l++ {
		for j, d := range st.deltas[l] {
			for k, in := range outs[l-1] {
				change := rate*d*in + momentum*st.changes[l][j][k]
				st.changes[l][j][k] = change
				n.weights[l][j][k] += change
			}
			n.biases[l][j] += rate * d
		}
	}
	return mse / float64(n.sizes[last])
}

type wireNetwork struct {
	Sizes   []int         `json:"sizes"`
	Weights [][][]float64 `json:"weights"`
	Biases  [][]float64   `json:"biases"`
}

// MarshalBinary exports the network as JSON. Float64 values survive the
// round trip exactly.
func (n *Network) MarshalBinary() ([]byte, error) {
	return json.Marshal(wireNetwork{Sizes: n.sizes, Weights: n.weights, Biases: n.biases})
}

// Decode rebuilds a network from MarshalBinary output.
func Decode(data []byte) (*Network, error) {
	var w wireNetwork
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	if len(w.Sizes) < 2 || len(w.Weights) != len(w.Sizes) || len(w.Biases) != len(w.Sizes) {
		return nil, errors.New("layer count mismatch")
	}
	for l, size := range w.Sizes {
		if size <= 0 {
			return nil, fmt.Errorf("layer %d has size %d", l, size)
		}
		if l == 0 {
			continue
		}
		if len(w.Biases[l]) != size || len(w.Weights[l]) != size {
			return nil, fmt.Errorf("layer %d shape mismatch", l)
		}
		for j := range w.Weights[l] {
			if len(w.Weights[l][j]) != w.Sizes[l-1] {
				return nil, fmt.Errorf("layer %d node %d has %d weights, want %d", l, j, len(w.Weights[l][j]), w.Sizes[l-1])
			}
		}
	}
	return &Network{sizes: w.Sizes, weights: w.Weights, biases: w.Biases}, nil
}
