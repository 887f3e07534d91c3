package docstore

import (
	"reflect"
	"testing"
)

func TestAddAndAll(t *testing.T) {
	s := New()
	s.Add(Doc{Tokens: []string{"fix", "box"}, Label: "computing"})
	s.Add(Doc{Tokens: []string{"read", "book"}, Label: "literature"})

	all := s.All()
	if len(all) != 2 || s.Len() != 2 {
		t.Fatalf("expected 2 docs, got %d", len(all))
	}
	if all[1].Label != "literature" {
		t.Errorf("docs should keep insertion order, got %v", all)
	}

	all[0].Tokens[0] = "mutated"
	if s.All()[0].Tokens[0] != "fix" {
		t.Error("All() must return copies")
	}
}

func TestAddCopiesInput(t *testing.T) {
	s := New()
	tokens := []string{"fix", "box"}
	s.Add(Doc{Tokens: tokens, Label: "computing"})
	tokens[0] = "mutated"

	if s.All()[0].Tokens[0] != "fix" {
		t.Error("Add must copy caller tokens")
	}
}

func TestRemoveFirstExactMatch(t *testing.T) {
	s := NewFrom([]Doc{
		{Tokens: []string{"qux", "zooby"}, Label: "bad"},
		{Tokens: []string{"asdf", "qwer"}, Label: "bad"},
		{Tokens: []string{"qux", "zooby"}, Label: "bad"},
	})

	if !s.Remove(Doc{Tokens: []string{"qux", "zooby"}, Label: "bad"}) {
		t.Fatal("expected a match")
	}
	want := []Doc{
		{Tokens: []string{"asdf", "qwer"}, Label: "bad"},
		{Tokens: []string{"qux", "zooby"}, Label: "bad"},
	}
	if got := s.All(); !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
}

func TestRemoveNoMatch(t *testing.T) {
	s := NewFrom([]Doc{{Tokens: []string{"qux", "zooby"}, Label: "bad"}})

	tests := []struct {
		name string
		doc  Doc
	}{
		{"wrong label", Doc{Tokens: []string{"qux", "zooby"}, Label: "good"}},
		{"wrong order", Doc{Tokens: []string{"zooby", "qux"}, Label: "bad"}},
		{"subset", Doc{Tokens: []string{"qux"}, Label: "bad"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s.Remove(tt.doc) {
				t.Errorf("Remove(%v) should not match", tt.doc)
			}
			if s.Len() != 1 {
				t.Errorf("store should be unchanged, len=%d", s.Len())
			}
		})
	}
}

func TestLabels(t *testing.T) {
	s := NewFrom([]Doc{
		{Tokens: []string{"a"}, Label: "good"},
		{Tokens: []string{"b"}, Label: "bad"},
		{Tokens: []string{"c"}, Label: "good"},
	})
	if got := s.Labels(); !reflect.DeepEqual(got, []string{"good", "bad"}) {
		t.Errorf("Labels() = %v", got)
	}
	if got := New().Labels(); len(got) != 0 {
		t.Errorf("empty store Labels() = %v", got)
	}
}
