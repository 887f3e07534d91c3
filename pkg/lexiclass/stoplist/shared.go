package stoplist

// shared is the process-wide stopword configuration. Tokenizers built without
// an explicit stoplist read it on every call, so Disable and Enable take effect
// for live classifiers as well as new ones. Toggle it between sessions, not
// while another goroutine is training.
var shared = NewManager(English)

// Shared returns the process-wide manager.
func Shared() *Manager {
	return shared
}

// Disable empties the process-wide stopword set.
func Disable() {
	shared.Disable()
}

// Enable restores the process-wide stopword set to English.
func Enable() {
	shared.Enable()
}

// Words returns the active process-wide stopwords.
func Words() []string {
	return shared.All()
}
