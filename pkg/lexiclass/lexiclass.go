package lexiclass

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cognicore/lexiclass/pkg/lexiclass/config"
	"github.com/cognicore/lexiclass/pkg/lexiclass/docstore"
	"github.com/cognicore/lexiclass/pkg/lexiclass/features"
	"github.com/cognicore/lexiclass/pkg/lexiclass/ingest"
	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/model"
	"github.com/cognicore/lexiclass/pkg/lexiclass/model/neural"
	"github.com/cognicore/lexiclass/pkg/lexiclass/stoplist"
)

// Error kinds returned by the classifier. Test with errors.Is.
var (
	ErrUntrained        = internalerr.ErrUntrained
	ErrEmptyTrainingSet = internalerr.ErrEmptyTrainingSet
	ErrMalformedState   = internalerr.ErrMalformedState
	ErrPersistence      = internalerr.ErrPersistence
)

// Input is raw text or a pre-tokenized sequence.
type Input = ingest.Input

// Text wraps raw text; it is split, lower-cased and stopword filtered.
func Text(s string) Input { return ingest.Text(s) }

// Tokens wraps pre-tokenized input; only stopword filtering applies.
func Tokens(tokens ...string) Input { return ingest.Tokens(tokens...) }

// Classifier is a supervised text classifier over a growing labeled corpus.
//
// A Classifier is not safe for concurrent use; callers serialize access.
// Tokenization consults the stoplist on every call, so with the default
// tokenizer stoplist.Disable and stoplist.Enable affect live classifiers.
type Classifier struct {
	tokenizer *ingest.Tokenizer
	trainer   model.Trainer
	log       *slog.Logger

	vectorizer features.Vectorizer
	docs       *docstore.Store

	model model.Model
	// widths of the vocabulary and label registry the model was trained on
	trainedInputs  int
	trainedOutputs int
}

// Options configures a Classifier. Zero values select defaults.
type Options struct {
	// Tokenizer overrides tokenization entirely.
	Tokenizer *ingest.Tokenizer
	// Stopwords binds the default tokenizer to a specific stoplist instead of
	// the process-wide one. Ignored when Tokenizer is set.
	Stopwords *stoplist.Manager
	// Trainer is the scoring backend; defaults to a neural network.
	Trainer model.Trainer
	Logger  *slog.Logger
}

// Classification is one label with its model score.
type Classification struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// New creates an empty, untrained classifier.
func New(opts Options) *Classifier {
	c := &Classifier{
		tokenizer: opts.Tokenizer,
		trainer:   opts.Trainer,
		log:       opts.Logger,
		vectorizer: features.Vectorizer{
			Vocabulary: features.NewIndex(),
			Labels:     features.NewIndex(),
		},
		docs: docstore.New(),
	}
	if c.tokenizer == nil {
		if opts.Stopwords != nil {
			c.tokenizer = ingest.NewTokenizerWith(opts.Stopwords)
		} else {
			c.tokenizer = ingest.NewSharedTokenizer()
		}
	}
	if c.trainer == nil {
		c.trainer = neural.NewTrainer(neural.DefaultConfig())
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c
}

// NewFromConfig builds a classifier from file-level configuration.
func NewFromConfig(cfg config.Options, log *slog.Logger) (*Classifier, error) {
	comp, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(Options{Tokenizer: comp.Tokenizer, Trainer: comp.Trainer, Logger: log}), nil
}

// Tokenizer returns the tokenizer used for documents and queries.
func (c *Classifier) Tokenizer() *ingest.Tokenizer {
	return c.tokenizer
}

// AddDocument tokenizes in and stores it under label. Vocabulary and label
// registry grow as a side effect; the model is untouched until Retrain.
func (c *Classifier) AddDocument(in Input, label string) {
	tokens := c.tokenizer.Process(in)
	c.vectorizer.Observe(tokens, label)
	c.docs.Add(docstore.Doc{Tokens: tokens, Label: label})
}

// RemoveDocument removes the first stored document whose normalized tokens
// and label match exactly. A miss is not an error; it reports false.
// Vocabulary and labels keep their indexes.
func (c *Classifier) RemoveDocument(in Input, label string) bool {
	tokens := c.tokenizer.Process(in)
	return c.docs.Remove(docstore.Doc{Tokens: tokens, Label: label})
}

// Train fits a new model on every stored document. It fails with
// ErrEmptyTrainingSet when there are no documents, no features or fewer
// than two labels; the previous model, if any, is kept in that case.
func (c *Classifier) Train(ctx context.Context) error {
	docs := c.docs.All()
	if len(docs) == 0 {
		return fmt.Errorf("%w: no documents", ErrEmptyTrainingSet)
	}
	if labels := c.docs.Labels(); len(labels) < 2 {
		return fmt.Errorf("%w: need at least 2 labels, have %d", ErrEmptyTrainingSet, len(labels))
	}
	if c.vectorizer.Vocabulary.Size() == 0 {
		return fmt.Errorf("%w: documents carry no tokens", ErrEmptyTrainingSet)
	}

	pairs := make([]model.Pair, len(docs))
	for i, d := range docs {
		pairs[i] = model.Pair{
			Input:  c.vectorizer.EncodeInput(d.Tokens),
			Output: c.vectorizer.EncodeOutput(d.Label),
		}
	}

	start := time.Now()
	m, report, err := c.trainer.Fit(ctx, pairs)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	c.model = m
	c.trainedInputs = c.vectorizer.Vocabulary.Size()
	c.trainedOutputs = c.vectorizer.Labels.Size()
	c.log.Info("classifier trained",
		"documents", len(docs),
		"vocabulary", c.trainedInputs,
		"labels", c.trainedOutputs,
		"iterations", report.Iterations,
		"error", report.Error,
		"duration", time.Since(start))
	return nil
}

// Retrain rebuilds the model from scratch from the current documents. It is
// the same full-batch pass as Train.
func (c *Classifier) Retrain(ctx context.Context) error {
	return c.Train(ctx)
}

// Trained reports whether a model is available for scoring.
func (c *Classifier) Trained() bool {
	return c.model != nil
}

// Classify returns the best-scoring label for in.
func (c *Classifier) Classify(in Input) (string, error) {
	ranked, err := c.GetClassifications(in)
	if err != nil {
		return "", err
	}
	return ranked[0].Label, nil
}

// GetClassifications scores in against every label the model was trained on,
// highest first. Equal scores keep label registration order.
//
// Documents added since the last training do not change scoring: inputs are
// encoded against the vocabulary width the model was trained on.
func (c *Classifier) GetClassifications(in Input) ([]Classification, error) {
	if c.model == nil {
		return nil, ErrUntrained
	}

	tokens := c.tokenizer.Process(in)
	vec := c.vectorizer.EncodeInput(tokens)[:c.trainedInputs]
	if c.vectorizer.Vocabulary.Size() != c.trainedInputs || c.vectorizer.Labels.Size() != c.trainedOutputs {
		c.log.Debug("scoring with a model older than the corpus",
			"vocabulary", c.vectorizer.Vocabulary.Size(), "trained_vocabulary", c.trainedInputs)
	}

	scores, err := c.model.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(scores) != c.trainedOutputs {
		return nil, fmt.Errorf("%w: model returned %d scores for %d labels", ErrMalformedState, len(scores), c.trainedOutputs)
	}

	ranked := make([]Classification, len(scores))
	for i, v := range scores {
		ranked[i] = Classification{Label: c.vectorizer.Labels.At(i), Value: v}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value > ranked[j].Value
	})
	return ranked, nil
}

// Documents returns the stored corpus in insertion order.
func (c *Classifier) Documents() []docstore.Doc {
	return c.docs.All()
}

// Vocabulary returns every token seen, in feature index order.
func (c *Classifier) Vocabulary() []string {
	return c.vectorizer.Vocabulary.Items()
}

// Labels returns every label seen, in output index order.
func (c *Classifier) Labels() []string {
	return c.vectorizer.Labels.Items()
}
