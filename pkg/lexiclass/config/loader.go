package config

import (
	"fmt"

	"github.com/cognicore/lexiclass/pkg/lexiclass/ingest"
	"github.com/cognicore/lexiclass/pkg/lexiclass/lexicon"
	"github.com/cognicore/lexiclass/pkg/lexiclass/model/neural"
	"github.com/cognicore/lexiclass/pkg/lexiclass/stoplist"
)

// Components holds everything built from Options.
type Components struct {
	Tokenizer *ingest.Tokenizer
	Trainer   *neural.Trainer
}

// Build constructs the tokenizer and trainer described by o.
//
// Stopword selection:
//   - Stoplist set: a private list loaded from that file
//   - Stopwords false: no filtering
//   - otherwise: the process-wide list, which follows stoplist.Disable/Enable
func (o Options) Build() (*Components, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	var tok *ingest.Tokenizer
	switch {
	case o.Stoplist != "":
		sl, err := LoadStoplist(o.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		tok = ingest.NewTokenizer(sl.Terms)
	case o.Stopwords != nil && !*o.Stopwords:
		tok = ingest.NewTokenizerWith(stoplist.NewManager(nil))
	default:
		tok = ingest.NewSharedTokenizer()
	}

	if o.Lexicon != "" {
		lex, err := lexicon.Load(o.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		tok.SetLexicon(lex)
	}
	tok.SetStemming(o.Stem)
	if o.MinLen > 0 {
		tok.SetMinLen(o.MinLen)
	}

	return &Components{
		Tokenizer: tok,
		Trainer:   neural.NewTrainer(o.Network()),
	}, nil
}
