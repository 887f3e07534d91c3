package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
)

func TestFoldAndNormalize(t *testing.T) {
	lex := New()
	if err := lex.Fold("Book", "books", "NOVEL", "book"); err != nil {
		t.Fatalf("Fold: %v", err)
	}

	for in, want := range map[string]string{
		"books": "book",
		"novel": "book",
		"book":  "book",
		"code":  "code",
	} {
		if got := lex.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if got := lex.Variants("book"); !reflect.DeepEqual(got, []string{"books", "novel"}) {
		t.Errorf("Variants(book) = %v", got)
	}
}

func TestFoldIsAdditive(t *testing.T) {
	lex := New()
	if err := lex.Fold("book", "books"); err != nil {
		t.Fatal(err)
	}
	if err := lex.Fold("book", "novel", "books"); err != nil {
		t.Fatal(err)
	}
	if lex.Len() != 1 {
		t.Errorf("Len() = %d, want 1", lex.Len())
	}
	if got := lex.Variants("book"); !reflect.DeepEqual(got, []string{"books", "novel"}) {
		t.Errorf("Variants(book) = %v", got)
	}
}

func TestFoldConflicts(t *testing.T) {
	lex := New()
	if err := lex.Fold("book", "novel"); err != nil {
		t.Fatal(err)
	}
	if err := lex.Fold("story", "novel"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for shared variant, got %v", err)
	}
	if err := lex.Fold("novel", "fiction"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for variant used as canonical, got %v", err)
	}
	if err := lex.Fold("  "); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for empty canonical, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `folds:
  program: [script, coding]
  book: [books]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lex.Len() != 2 {
		t.Fatalf("expected 2 canonical forms, got %d", lex.Len())
	}
	if got := lex.Normalize("coding"); got != "program" {
		t.Errorf("Normalize(coding) = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("folds: [not, a, map]")); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for bad shape, got %v", err)
	}
	if _, err := Parse([]byte("folds:\n  a: [x]\n  b: [x]\n")); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for conflicting folds, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
