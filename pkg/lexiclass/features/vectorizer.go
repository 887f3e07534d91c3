package features

// Vectorizer encodes documents and labels against the current widths of a
// vocabulary and a label registry.
type Vectorizer struct {
	Vocabulary *Index
	Labels     *Index
}

// Observe registers every token and the label, growing both indexes.
func (v Vectorizer) Observe(tokens []string, label string) {
	for _, tok := range tokens {
		v.Vocabulary.IndexOf(tok)
	}
	v.Labels.IndexOf(label)
}

// EncodeInput returns term counts over the vocabulary. Tokens outside the
// vocabulary carry no signal and are dropped.
func (v Vectorizer) EncodeInput(tokens []string) []float64 {
	vec := make([]float64, v.Vocabulary.Size())
	for _, tok := range tokens {
		if id, ok := v.Vocabulary.Lookup(tok); ok {
			vec[id]++
		}
	}
	return vec
}

// EncodeOutput returns a one-hot vector over the label registry. An unknown
// label yields the all-zero vector.
func (v Vectorizer) EncodeOutput(label string) []float64 {
	vec := make([]float64, v.Labels.Size())
	if id, ok := v.Labels.Lookup(label); ok {
		vec[id] = 1
	}
	return vec
}
