package store

import (
	"context"
	"fmt"

	"github.com/cognicore/lexiclass/pkg/lexiclass/docstore"
	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
)

// State is the self-contained form of a classifier: everything needed to
// rebuild it, including the trained model when there is one.
type State struct {
	Vocabulary []string       `json:"vocabulary"`
	Labels     []string       `json:"labels"`
	Documents  []docstore.Doc `json:"documents"`
	Model      *Model         `json:"model"`
}

// Model is the exported form of a trained model.
type Model struct {
	Kind string `json:"kind"`
	// Inputs and Outputs are the vocabulary and label widths it was trained on.
	Inputs  int    `json:"inputs"`
	Outputs int    `json:"outputs"`
	Data    []byte `json:"data"`
}

// Backend persists classifier state.
type Backend interface {
	Save(ctx context.Context, st State) error
	Load(ctx context.Context) (State, error)
	Close() error
}

// Validate checks the structural invariants of a state. Failures wrap
// internalerr.ErrMalformedState.
func (st State) Validate() error {
	vocab := make(map[string]struct{}, len(st.Vocabulary))
	for _, tok := range st.Vocabulary {
		if _, dup := vocab[tok]; dup {
			return fmt.Errorf("%w: duplicate vocabulary token %q", internalerr.ErrMalformedState, tok)
		}
		vocab[tok] = struct{}{}
	}
	labels := make(map[string]struct{}, len(st.Labels))
	for _, l := range st.Labels {
		if _, dup := labels[l]; dup {
			return fmt.Errorf("%w: duplicate label %q", internalerr.ErrMalformedState, l)
		}
		labels[l] = struct{}{}
	}
	for i, d := range st.Documents {
		if _, ok := labels[d.Label]; !ok {
			return fmt.Errorf("%w: document %d has unregistered label %q", internalerr.ErrMalformedState, i, d.Label)
		}
		for _, tok := range d.Tokens {
			if _, ok := vocab[tok]; !ok {
				return fmt.Errorf("%w: document %d has token %q outside the vocabulary", internalerr.ErrMalformedState, i, tok)
			}
		}
	}
	if m := st.Model; m != nil {
		if m.Kind == "" || len(m.Data) == 0 {
			return fmt.Errorf("%w: model without kind or data", internalerr.ErrMalformedState)
		}
		if m.Inputs <= 0 || m.Inputs > len(st.Vocabulary) || m.Outputs <= 0 || m.Outputs > len(st.Labels) {
			return fmt.Errorf("%w: model widths %d/%d exceed vocabulary %d and labels %d",
				internalerr.ErrMalformedState, m.Inputs, m.Outputs, len(st.Vocabulary), len(st.Labels))
		}
	}
	return nil
}
