package docstore

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Doc is a labeled token sequence as it was added.
type Doc struct {
	Tokens []string `json:"tokens"`
	Label  string   `json:"label"`
}

// Equal reports whether two documents match exactly, token order included.
func (d Doc) Equal(other Doc) bool {
	return d.Label == other.Label && slices.Equal(d.Tokens, other.Tokens)
}

// Store is the ordered in-memory corpus. It is the source of truth that
// training data is rebuilt from.
type Store struct {
	mu   sync.RWMutex
	docs []Doc
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// NewFrom creates a store holding copies of docs in order.
func NewFrom(docs []Doc) *Store {
	s := New()
	for _, d := range docs {
		s.Add(d)
	}
	return s
}

// Add appends a document.
func (s *Store) Add(d Doc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, copyDoc(d))
}

// Remove deletes the first document equal to d and reports whether one was found.
func (s *Store) Remove(d Doc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, pos, found := lo.FindIndexOf(s.docs, func(item Doc) bool {
		return item.Equal(d)
	})
	if !found {
		return false
	}
	s.docs = slices.Delete(s.docs, pos, pos+1)
	return true
}

// All returns copies of every document in insertion order.
func (s *Store) All() []Doc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.docs, func(d Doc, _ int) Doc {
		return copyDoc(d)
	})
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Labels returns the distinct labels currently present, in first-seen order.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Uniq(lo.Map(s.docs, func(d Doc, _ int) string {
		return d.Label
	}))
}

func copyDoc(d Doc) Doc {
	tokens := make([]string, len(d.Tokens))
	copy(tokens, d.Tokens)
	return Doc{Tokens: tokens, Label: d.Label}
}
