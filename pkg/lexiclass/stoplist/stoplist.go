package stoplist

import (
	"slices"
	"strings"
	"sync"
)

// Manager is a concurrency-safe stopword set with a default list it can be
// reset to. Disabling empties the active set; enabling restores the defaults.
type Manager struct {
	mu       sync.RWMutex
	active   map[string]Reason
	defaults []string
	disabled bool
}

// Reason records the corpus evidence behind a suggested stopword. Words from
// the default list carry the zero Reason.
type Reason struct {
	HighDF      bool
	LowPMI      bool
	HighEntropy bool
	IDF         float64
	PMIMax      float64 // best NPMI with any label
	CatEntropy  float64 // normalized label entropy
}

// NewManager creates an enabled manager whose defaults are words, lower-cased.
func NewManager(words []string) *Manager {
	m := &Manager{}
	for _, w := range words {
		if w = fold(w); w != "" {
			m.defaults = append(m.defaults, w)
		}
	}
	m.reset()
	return m
}

func fold(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// reset must be called with mu held for writing.
func (m *Manager) reset() {
	m.active = make(map[string]Reason, len(m.defaults))
	for _, w := range m.defaults {
		m.active[w] = Reason{}
	}
}

// IsStop reports whether token is in the active set. token is expected in
// lower case already.
func (m *Manager) IsStop(token string) bool {
	m.mu.RLock()
	_, ok := m.active[token]
	m.mu.RUnlock()
	return ok
}

// Add activates token, lower-cased, recording why it is a stopword.
func (m *Manager) Add(token string, reason Reason) {
	if token = fold(token); token == "" {
		return
	}
	m.mu.Lock()
	m.active[token] = reason
	m.mu.Unlock()
}

// Remove deactivates token, lower-cased.
func (m *Manager) Remove(token string) {
	m.mu.Lock()
	delete(m.active, fold(token))
	m.mu.Unlock()
}

// All returns the active set in lexical order.
func (m *Manager) All() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.active))
	for w := range m.active {
		out = append(out, w)
	}
	m.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Len returns the size of the active set.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Disable empties the active set. Words added while disabled stay active
// until the next Enable.
func (m *Manager) Disable() {
	m.mu.Lock()
	m.active = make(map[string]Reason)
	m.disabled = true
	m.mu.Unlock()
}

// Enable restores the defaults, dropping any runtime additions and removals.
func (m *Manager) Enable() {
	m.mu.Lock()
	m.reset()
	m.disabled = false
	m.mu.Unlock()
}

// Enabled reports whether Enable, rather than Disable, was called last.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.disabled
}
