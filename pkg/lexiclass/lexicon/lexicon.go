package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
)

// Lexicon folds token variants onto one canonical token so that "novel" and
// "book" share a feature.
type Lexicon struct {
	canonical map[string]string   // variant -> canonical
	folds     map[string][]string // canonical -> variants, canonical excluded
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		canonical: make(map[string]string),
		folds:     make(map[string][]string),
	}
}

// Load reads a lexicon file:
//
//	folds:
//	  book: [books, novel]
//	  program: [script, code]
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML in the Load format.
func Parse(data []byte) (*Lexicon, error) {
	var file struct {
		Folds map[string][]string `yaml:"folds"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: lexicon: %v", internalerr.ErrInvalidConfig, err)
	}

	// map order is random; sort so conflicts are reported deterministically
	keys := make([]string, 0, len(file.Folds))
	for k := range file.Folds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lex := New()
	for _, k := range keys {
		if err := lex.Fold(k, file.Folds[k]...); err != nil {
			return nil, err
		}
	}
	return lex, nil
}

// Fold maps each variant onto canonical. A token may belong to one canonical
// form only; claiming it for a second one is an ErrInvalidConfig.
func (l *Lexicon) Fold(canonical string, variants ...string) error {
	canonical = strings.ToLower(strings.TrimSpace(canonical))
	if canonical == "" {
		return fmt.Errorf("%w: lexicon: empty canonical form", internalerr.ErrInvalidConfig)
	}
	if owner, ok := l.canonical[canonical]; ok && owner != canonical {
		return fmt.Errorf("%w: lexicon: %q already folds into %q", internalerr.ErrInvalidConfig, canonical, owner)
	}
	l.canonical[canonical] = canonical

	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || v == canonical {
			continue
		}
		switch owner, ok := l.canonical[v]; {
		case !ok:
			l.canonical[v] = canonical
			l.folds[canonical] = append(l.folds[canonical], v)
		case owner != canonical:
			return fmt.Errorf("%w: lexicon: %q folds into both %q and %q", internalerr.ErrInvalidConfig, v, owner, canonical)
		}
	}
	if _, ok := l.folds[canonical]; !ok {
		l.folds[canonical] = nil
	}
	return nil
}

// Normalize returns the canonical form of a lower-cased token. Unknown
// tokens come back unchanged.
func (l *Lexicon) Normalize(token string) string {
	if c, ok := l.canonical[token]; ok {
		return c
	}
	return token
}

// Variants returns the tokens folded into canonical.
func (l *Lexicon) Variants(canonical string) []string {
	out := make([]string, len(l.folds[canonical]))
	copy(out, l.folds[canonical])
	return out
}

// Len returns the number of canonical forms.
func (l *Lexicon) Len() int {
	return len(l.folds)
}
