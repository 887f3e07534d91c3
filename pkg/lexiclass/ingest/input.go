package ingest

import "strings"

// Input is either raw text or an already tokenized sequence.
type Input struct {
	text         string
	tokens       []string
	pretokenized bool
}

// Text wraps raw text for tokenization.
func Text(s string) Input {
	return Input{text: s}
}

// Tokens wraps a pre-tokenized sequence; only stopword filtering is applied to it.
func Tokens(tokens ...string) Input {
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	return Input{tokens: cp, pretokenized: true}
}

// Pretokenized reports whether the input carries tokens rather than text.
func (in Input) Pretokenized() bool {
	return in.pretokenized
}

// String renders the input for logs.
func (in Input) String() string {
	if in.pretokenized {
		return "[" + strings.Join(in.tokens, " ") + "]"
	}
	return in.text
}
