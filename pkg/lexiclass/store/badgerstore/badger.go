package badgerstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/lexiclass/pkg/lexiclass/docstore"
	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store"
)

// Repository stores one named classifier in BadgerDB.
//
// Keys are laid out as:
//
//	cls:{len}:{name}:meta       vocabulary, labels and model
//	cls:{len}:{name}:doc:{ulid} one document each
//
// {len} is the byte length of name, so no classifier's prefix covers another
// one's keys even when names contain ':'.
//
// ULIDs sort lexicographically in creation order, so a prefix scan returns
// documents in insertion order.
type Repository struct {
	db      *badger.DB
	log     *slog.Logger
	name    string
	ownsDB  bool

	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
}

type meta struct {
	Vocabulary []string     `json:"vocabulary"`
	Labels     []string     `json:"labels"`
	Model      *store.Model `json:"model"`
}

// New binds a repository to an already opened database. Close leaves db open.
func New(db *badger.DB, name string, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		db:      db,
		log:     log,
		name:    name,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Open opens (or creates) a database at dir and binds it to name. An empty
// dir opens an in-memory database.
func Open(dir, name string, log *slog.Logger) (*Repository, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty classifier name", internalerr.ErrInvalidInput)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	opts := badger.DefaultOptions(dir).WithLogger(logger{log: log})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", internalerr.ErrPersistence, err)
	}
	r := New(db, name, log)
	r.ownsDB = true
	return r, nil
}

// Close closes the database if the repository opened it.
func (r *Repository) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) prefix() []byte {
	return []byte(fmt.Sprintf("cls:%d:%s:", len(r.name), r.name))
}

func (r *Repository) metaKey() []byte {
	return append(r.prefix(), "meta"...)
}

func (r *Repository) docPrefix() []byte {
	return append(r.prefix(), "doc:"...)
}

func (r *Repository) newID() ulid.ULID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ulid.MustNew(ulid.Now(), r.entropy)
}

// Save drops everything stored under the classifier and writes st. Documents
// are written first and the meta key last, so an interrupted save reads back
// as not found rather than as a truncated corpus.
func (r *Repository) Save(ctx context.Context, st store.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.db.DropPrefix(r.prefix()); err != nil {
		return fmt.Errorf("%w: drop %q: %v", internalerr.ErrPersistence, r.name, err)
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()

	for _, d := range st.Documents {
		value, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("%w: encode document: %v", internalerr.ErrPersistence, err)
		}
		key := append(r.docPrefix(), r.newID().String()...)
		if err := wb.Set(key, value); err != nil {
			return fmt.Errorf("%w: write document: %v", internalerr.ErrPersistence, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: flush documents: %v", internalerr.ErrPersistence, err)
	}

	value, err := json.Marshal(meta{Vocabulary: st.Vocabulary, Labels: st.Labels, Model: st.Model})
	if err != nil {
		return fmt.Errorf("%w: encode meta: %v", internalerr.ErrPersistence, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(r.metaKey(), value)
	})
	if err != nil {
		return fmt.Errorf("%w: write meta: %v", internalerr.ErrPersistence, err)
	}
	r.log.Debug("classifier stored", "name", r.name, "documents", len(st.Documents))
	return nil
}

// Load reads the classifier back with a prefix scan over its documents.
func (r *Repository) Load(ctx context.Context) (store.State, error) {
	if err := ctx.Err(); err != nil {
		return store.State{}, err
	}

	var (
		m    meta
		docs = []docstore.Doc{}
	)
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(r.metaKey())
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &m)
		}); err != nil {
			return fmt.Errorf("%w: meta: %v", internalerr.ErrMalformedState, err)
		}

		prefix := r.docPrefix()
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d docstore.Doc
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &d)
			}); err != nil {
				return fmt.Errorf("%w: document %s: %v", internalerr.ErrMalformedState, it.Item().Key(), err)
			}
			docs = append(docs, d)
		}
		return nil
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return store.State{}, fmt.Errorf("%w: classifier %q: %w", internalerr.ErrPersistence, r.name, internalerr.ErrNotFound)
	case errors.Is(err, internalerr.ErrMalformedState):
		return store.State{}, err
	case err != nil:
		return store.State{}, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}

	st := store.State{Vocabulary: m.Vocabulary, Labels: m.Labels, Documents: docs, Model: m.Model}
	if err := st.Validate(); err != nil {
		return store.State{}, err
	}
	return st, nil
}

// logger routes badger's internal logging to slog.
type logger struct {
	log *slog.Logger
}

func (l logger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l logger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l logger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l logger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
