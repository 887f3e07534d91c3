package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexiclass/pkg/lexiclass/ingest"
	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
)

// example is one labeled training text.
type example struct {
	Text  string `yaml:"text"`
	Label string `yaml:"label"`
}

type corpusFile struct {
	Documents []example `yaml:"documents"`
}

// readCorpus loads labeled examples from YAML ({documents: [{text, label}]})
// or from tab separated "label<TAB>text" lines. With stripHTML the text is
// reduced to its visible content first.
func readCorpus(path string, stripHTML bool) ([]example, error) {
	var (
		docs []example
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		docs, err = readYAMLCorpus(path)
	default:
		docs, err = readTSVCorpus(path)
	}
	if err != nil {
		return nil, err
	}

	for i := range docs {
		if docs[i].Label == "" {
			return nil, fmt.Errorf("%w: %s: document %d has no label", internalerr.ErrInvalidInput, path, i+1)
		}
		if stripHTML {
			text, err := ingest.TextFromHTML(docs[i].Text)
			if err != nil {
				return nil, fmt.Errorf("%s: document %d: %w", path, i+1, err)
			}
			docs[i].Text = text
		}
	}
	return docs, nil
}

func readYAMLCorpus(path string) ([]example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf corpusFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidInput, path, err)
	}
	return cf.Documents, nil
}

func readTSVCorpus(path string) ([]example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []example
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		label, text, ok := strings.Cut(raw, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: %s:%d: want label<TAB>text", internalerr.ErrInvalidInput, path, line)
		}
		docs = append(docs, example{Text: text, Label: strings.TrimSpace(label)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
