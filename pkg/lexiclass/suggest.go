package lexiclass

import (
	"context"
	"math"

	"github.com/cognicore/lexiclass/pkg/lexiclass/pmi"
	"github.com/cognicore/lexiclass/pkg/lexiclass/stoplist"
)

// CorpusStats computes per-token document statistics over the stored corpus,
// in vocabulary order. Tokens that no longer occur in any document are
// skipped.
func (c *Classifier) CorpusStats() []stoplist.Stats {
	docs := c.docs.All()
	labels := c.vectorizer.Labels
	n := int64(len(docs))
	if n == 0 {
		return nil
	}

	perLabel := make([]int64, labels.Size())
	df := make(map[string]int64)
	dfByLabel := make(map[string][]int64)
	for _, d := range docs {
		li, ok := labels.Lookup(d.Label)
		if !ok {
			continue
		}
		perLabel[li]++
		seen := make(map[string]struct{}, len(d.Tokens))
		for _, tok := range d.Tokens {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
			counts, ok := dfByLabel[tok]
			if !ok {
				counts = make([]int64, labels.Size())
				dfByLabel[tok] = counts
			}
			counts[li]++
		}
	}

	calc := pmi.NewCalculator(0)
	present := len(c.docs.Labels())
	var stats []stoplist.Stats
	for _, tok := range c.vectorizer.Vocabulary.Items() {
		nT := df[tok]
		if nT == 0 {
			continue
		}
		counts := dfByLabel[tok]
		best := math.Inf(-1)
		for li, nTL := range counts {
			if nTL == 0 {
				continue
			}
			if v := calc.NPMI(nTL, nT, perLabel[li], n); v > best {
				best = v
			}
		}
		stats = append(stats, stoplist.Stats{
			Token:      tok,
			DF:         nT,
			DFPercent:  100 * float64(nT) / float64(n),
			IDF:        math.Log(float64(n) / float64(nT)),
			PMIMax:     best,
			CatEntropy: pmi.Entropy(counts, present),
		})
	}
	return stats
}

// SuggestStopwords proposes frequent corpus tokens that are weakly tied to
// any single label, highest score first. Tokens the tokenizer already drops
// are never suggested. Zero thresholds select stoplist.DefaultThresholds.
func (c *Classifier) SuggestStopwords(th stoplist.Thresholds) []stoplist.Candidate {
	if th == (stoplist.Thresholds{}) {
		th = stoplist.DefaultThresholds()
	}
	return c.tokenizer.Stoplist().SuggestCandidates(c.CorpusStats(), th)
}

// Reviewer approves stopword candidates before they are applied.
type Reviewer interface {
	Approve(ctx context.Context, cand stoplist.Candidate) (bool, error)
}

// ReviewerFunc adapts a function to Reviewer.
type ReviewerFunc func(ctx context.Context, cand stoplist.Candidate) (bool, error)

func (f ReviewerFunc) Approve(ctx context.Context, cand stoplist.Candidate) (bool, error) {
	return f(ctx, cand)
}

// TuneStopwords routes suggestions through r and adds the approved ones to the
// tokenizer's stoplist. Stored documents keep their tokens; the new stopwords
// apply to documents added and queries made afterwards. A nil reviewer
// approves everything.
func (c *Classifier) TuneStopwords(ctx context.Context, th stoplist.Thresholds, r Reviewer) ([]stoplist.Candidate, error) {
	var approved []stoplist.Candidate
	for _, cand := range c.SuggestStopwords(th) {
		ok := true
		if r != nil {
			var err error
			if ok, err = r.Approve(ctx, cand); err != nil {
				return nil, err
			}
		}
		if ok {
			approved = append(approved, cand)
		}
	}

	stops := c.tokenizer.Stoplist()
	for _, cand := range approved {
		stops.Add(cand.Token, cand.Reason)
	}
	if len(approved) > 0 {
		c.log.Info("stopwords tuned", "added", len(approved))
	}
	return approved, nil
}
