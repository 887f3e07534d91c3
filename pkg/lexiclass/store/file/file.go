package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store"
)

// fileStore keeps classifier state as one JSON document on disk.
type fileStore struct {
	path string
}

// Open returns a backend reading and writing the JSON file at path.
// The file does not need to exist until Load is called.
func Open(path string) store.Backend {
	return &fileStore{path: path}
}

// Close implements store.Backend.
func (f *fileStore) Close() error { return nil }

// Save writes st to a temporary file in the target directory and renames it
// into place, so readers never observe a partial document.
func (f *fileStore) Save(ctx context.Context, st store.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", internalerr.ErrPersistence, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", internalerr.ErrPersistence, f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %v", internalerr.ErrPersistence, f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: rename into %s: %v", internalerr.ErrPersistence, f.path, err)
	}
	return nil
}

// Load reads and validates the state at path.
func (f *fileStore) Load(ctx context.Context) (store.State, error) {
	if err := ctx.Err(); err != nil {
		return store.State{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return store.State{}, fmt.Errorf("%w: %w", internalerr.ErrPersistence, err)
	}

	var st store.State
	if err := json.Unmarshal(data, &st); err != nil {
		return store.State{}, fmt.Errorf("%w: decode %s: %v", internalerr.ErrMalformedState, f.path, err)
	}
	if err := st.Validate(); err != nil {
		return store.State{}, err
	}
	return st, nil
}
