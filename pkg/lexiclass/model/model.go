package model

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
)

// Pair is one training example: a feature vector and its one-hot target.
type Pair struct {
	Input  []float64
	Output []float64
}

// Report summarizes a training run.
type Report struct {
	Iterations int
	Error      float64
}

// Trainer fits a scoring model to a full batch of pairs.
// This interface allows swapping backends (neural net, linear model, ...)
// without the classifier inspecting the trained artifact.
type Trainer interface {
	Fit(ctx context.Context, pairs []Pair) (Model, Report, error)
}

// Model maps a feature vector to one score per output slot.
type Model interface {
	// Kind names the backend; it selects the decoder on import.
	Kind() string
	Predict(input []float64) ([]float64, error)
	MarshalBinary() ([]byte, error)
}

// Decoder rebuilds a model from MarshalBinary output.
type Decoder func(data []byte) (Model, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]Decoder{}
)

// Register makes a decoder available under kind. Backends call it from init.
func Register(kind string, dec Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	if dec == nil {
		panic("model: nil decoder for " + kind)
	}
	decoders[kind] = dec
}

// Decode rebuilds a model of the given kind.
func Decode(kind string, data []byte) (Model, error) {
	decodersMu.RLock()
	dec, ok := decoders[kind]
	decodersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown model kind %q", internalerr.ErrMalformedState, kind)
	}
	m, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s model: %v", internalerr.ErrMalformedState, kind, err)
	}
	return m, nil
}

// Kinds lists registered model kinds.
func Kinds() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	kinds := make([]string, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
