package lexiclass

import (
	"fmt"

	"github.com/cognicore/lexiclass/pkg/lexiclass/docstore"
	"github.com/cognicore/lexiclass/pkg/lexiclass/features"
	"github.com/cognicore/lexiclass/pkg/lexiclass/model"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store"
)

// State is the transportable form of a classifier.
type State = store.State

// ToState exports vocabulary, labels, documents and the trained model.
// Model is nil for an untrained classifier.
func (c *Classifier) ToState() (State, error) {
	st := State{
		Vocabulary: c.vectorizer.Vocabulary.Items(),
		Labels:     c.vectorizer.Labels.Items(),
		Documents:  c.docs.All(),
	}
	if c.model == nil {
		return st, nil
	}

	data, err := c.model.MarshalBinary()
	if err != nil {
		return State{}, fmt.Errorf("export model: %w", err)
	}
	st.Model = &store.Model{
		Kind:    c.model.Kind(),
		Inputs:  c.trainedInputs,
		Outputs: c.trainedOutputs,
		Data:    data,
	}
	return st, nil
}

// FromState rebuilds a classifier. A restored model scores exactly as the
// exported one did, without retraining.
func FromState(st State, opts Options) (*Classifier, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}

	vocab, err := features.NewIndexFrom(st.Vocabulary)
	if err != nil {
		return nil, err
	}
	labels, err := features.NewIndexFrom(st.Labels)
	if err != nil {
		return nil, err
	}

	c := New(opts)
	c.vectorizer = features.Vectorizer{Vocabulary: vocab, Labels: labels}
	c.docs = docstore.NewFrom(st.Documents)

	if st.Model != nil {
		m, err := model.Decode(st.Model.Kind, st.Model.Data)
		if err != nil {
			return nil, err
		}
		probe, err := m.Predict(make([]float64, st.Model.Inputs))
		if err != nil {
			return nil, fmt.Errorf("%w: model rejects %d inputs: %v", ErrMalformedState, st.Model.Inputs, err)
		}
		if len(probe) != st.Model.Outputs {
			return nil, fmt.Errorf("%w: model yields %d outputs, state says %d", ErrMalformedState, len(probe), st.Model.Outputs)
		}
		c.model = m
		c.trainedInputs = st.Model.Inputs
		c.trainedOutputs = st.Model.Outputs
	}
	return c, nil
}
