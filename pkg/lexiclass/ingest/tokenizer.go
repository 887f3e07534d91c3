package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	porterstemmer "github.com/blevesearch/go-porterstemmer"

	"github.com/cognicore/lexiclass/pkg/lexiclass/lexicon"
	"github.com/cognicore/lexiclass/pkg/lexiclass/stoplist"
)

// DefaultMinLen is the shortest token Tokenize keeps.
const DefaultMinLen = 2

// Tokenizer turns documents into feature tokens.
type Tokenizer struct {
	stops   *stoplist.Manager
	lexicon *lexicon.Lexicon // optional
	stem    bool
	minLen  int
}

// NewTokenizer creates a tokenizer with a private stopword list.
func NewTokenizer(stopwords []string) *Tokenizer {
	return NewTokenizerWith(stoplist.NewManager(stopwords))
}

// NewSharedTokenizer creates a tokenizer bound to the process-wide stoplist.
// stoplist.Disable and stoplist.Enable change its output immediately.
func NewSharedTokenizer() *Tokenizer {
	return NewTokenizerWith(stoplist.Shared())
}

// NewTokenizerWith creates a tokenizer that consults stops on every call.
// A nil manager disables stopword filtering.
func NewTokenizerWith(stops *stoplist.Manager) *Tokenizer {
	if stops == nil {
		stops = stoplist.NewManager(nil)
	}
	return &Tokenizer{stops: stops, minLen: DefaultMinLen}
}

// SetLexicon folds variants onto canonical tokens before stopword filtering.
func (t *Tokenizer) SetLexicon(lex *lexicon.Lexicon) {
	t.lexicon = lex
}

// SetStemming toggles Porter stemming of surviving tokens.
func (t *Tokenizer) SetStemming(on bool) {
	t.stem = on
}

// SetMinLen sets the minimum token length in runes. Values below 1 are treated as 1.
func (t *Tokenizer) SetMinLen(n int) {
	if n < 1 {
		n = 1
	}
	t.minLen = n
}

// Stoplist returns the manager consulted for stopword filtering.
func (t *Tokenizer) Stoplist() *stoplist.Manager {
	return t.stops
}

// Process tokenizes text input and filters pre-tokenized input.
func (t *Tokenizer) Process(in Input) []string {
	if in.pretokenized {
		return t.Filter(in.tokens)
	}
	return t.Tokenize(in.text)
}

// Filter applies stopword filtering to pre-tokenized input. Tokens are not
// re-split and keep their original case; the stoplist lookup uses the
// lower-cased form. Empty tokens are dropped.
func (t *Tokenizer) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || t.stops.IsStop(strings.ToLower(tok)) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Tokenize lower-cases text and splits it on anything but letters, digits and
// hyphens. Each word then has stray hyphens removed, is dropped when shorter
// than the minimum length or purely numeric, is folded through the lexicon,
// checked against the stoplist and finally stemmed when stemming is on.
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	out := words[:0]
	for _, w := range words {
		if w = t.normalize(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
}

func (t *Tokenizer) normalize(word string) string {
	// "--deep--learning--" -> "deep-learning"
	word = strings.Join(strings.FieldsFunc(word, func(r rune) bool { return r == '-' }), "-")
	if utf8.RuneCountInString(word) < t.minLen {
		return ""
	}
	// "2024" and "10-20" carry no topic; "gpt-4" and "utf-8" do
	if strings.IndexFunc(word, func(r rune) bool { return !unicode.IsDigit(r) && r != '-' }) < 0 {
		return ""
	}
	if t.lexicon != nil {
		word = t.lexicon.Normalize(word)
	}
	if t.stops.IsStop(word) {
		return ""
	}
	if t.stem {
		word = porterstemmer.StemString(word)
	}
	return word
}

// AddStopword adds a word to the tokenizer's stoplist. On a shared tokenizer
// this changes the process-wide list.
func (t *Tokenizer) AddStopword(word string) {
	t.stops.Add(word, stoplist.Reason{})
}

// RemoveStopword removes a word from the tokenizer's stoplist.
func (t *Tokenizer) RemoveStopword(word string) {
	t.stops.Remove(word)
}
