package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/lexiclass/pkg/lexiclass/docstore"
	"github.com/cognicore/lexiclass/pkg/lexiclass/internalerr"
	"github.com/cognicore/lexiclass/pkg/lexiclass/store"
)

// sqliteStore keeps any number of named classifiers in one SQLite database.
type sqliteStore struct {
	db   *sql.DB
	name string

	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
}

func (s *sqliteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// OpenSQLite opens a SQLite database with WAL mode enabled and binds the
// backend to the classifier called name.
func OpenSQLite(ctx context.Context, path, name string) (store.Backend, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty classifier name", internalerr.ErrInvalidInput)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}

	return &sqliteStore{
		db:      db,
		name:    name,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS classifiers (
	name TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS vocabulary (
	classifier TEXT NOT NULL,
	idx INTEGER NOT NULL,
	token TEXT NOT NULL,
	PRIMARY KEY(classifier, idx),
	UNIQUE(classifier, token),
	FOREIGN KEY(classifier) REFERENCES classifiers(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS labels (
	classifier TEXT NOT NULL,
	idx INTEGER NOT NULL,
	label TEXT NOT NULL,
	PRIMARY KEY(classifier, idx),
	UNIQUE(classifier, label),
	FOREIGN KEY(classifier) REFERENCES classifiers(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	classifier TEXT NOT NULL,
	label TEXT NOT NULL,
	tokens TEXT NOT NULL,
	FOREIGN KEY(classifier) REFERENCES classifiers(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS documents_classifier ON documents(classifier, id);

CREATE TABLE IF NOT EXISTS models (
	classifier TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	inputs INTEGER NOT NULL,
	outputs INTEGER NOT NULL,
	data BLOB NOT NULL,
	FOREIGN KEY(classifier) REFERENCES classifiers(name) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Save replaces the stored classifier with st in a single transaction.
func (s *sqliteStore) Save(ctx context.Context, st store.State) error {
	if err := s.save(ctx, st); err != nil {
		return fmt.Errorf("%w: save %q: %v", internalerr.ErrPersistence, s.name, err)
	}
	return nil
}

func (s *sqliteStore) save(ctx context.Context, st store.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// PRAGMA foreign_keys is per connection, so children are cleared explicitly.
	for _, table := range []string{"models", "documents", "labels", "vocabulary"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE classifier = ?`, s.name); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classifiers WHERE name = ?`, s.name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO classifiers (name, saved_at) VALUES (?, ?)`,
		s.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := insertIndexed(ctx, tx, `INSERT INTO vocabulary (classifier, idx, token) VALUES (?, ?, ?)`, s.name, st.Vocabulary); err != nil {
		return fmt.Errorf("vocabulary: %w", err)
	}
	if err := insertIndexed(ctx, tx, `INSERT INTO labels (classifier, idx, label) VALUES (?, ?, ?)`, s.name, st.Labels); err != nil {
		return fmt.Errorf("labels: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (id, classifier, label, tokens) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer docStmt.Close()

	for _, d := range st.Documents {
		tokens, err := json.Marshal(d.Tokens)
		if err != nil {
			return err
		}
		id := s.newID()
		if _, err := docStmt.ExecContext(ctx, id, s.name, d.Label, string(tokens)); err != nil {
			return fmt.Errorf("document: %w", err)
		}
	}

	if m := st.Model; m != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO models (classifier, kind, inputs, outputs, data) VALUES (?, ?, ?, ?, ?)`,
			s.name, m.Kind, m.Inputs, m.Outputs, m.Data); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}

	return tx.Commit()
}

func insertIndexed(ctx context.Context, tx *sql.Tx, query, name string, items []string) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, item := range items {
		if _, err := stmt.ExecContext(ctx, name, i, item); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the stored classifier back.
func (s *sqliteStore) Load(ctx context.Context) (store.State, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM classifiers WHERE name = ?`, s.name).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.State{}, fmt.Errorf("%w: classifier %q: %w", internalerr.ErrPersistence, s.name, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.State{}, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}

	var st store.State
	if st.Vocabulary, err = s.loadIndexed(ctx, `SELECT token FROM vocabulary WHERE classifier = ? ORDER BY idx`); err != nil {
		return store.State{}, err
	}
	if st.Labels, err = s.loadIndexed(ctx, `SELECT label FROM labels WHERE classifier = ? ORDER BY idx`); err != nil {
		return store.State{}, err
	}
	if st.Documents, err = s.loadDocuments(ctx); err != nil {
		return store.State{}, err
	}

	var m store.Model
	err = s.db.QueryRowContext(ctx,
		`SELECT kind, inputs, outputs, data FROM models WHERE classifier = ?`, s.name).
		Scan(&m.Kind, &m.Inputs, &m.Outputs, &m.Data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return store.State{}, fmt.Errorf("%w: model: %v", internalerr.ErrPersistence, err)
	default:
		st.Model = &m
	}

	if err := st.Validate(); err != nil {
		return store.State{}, err
	}
	return st, nil
}

func (s *sqliteStore) loadIndexed(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, s.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}
	return items, nil
}

func (s *sqliteStore) loadDocuments(ctx context.Context) ([]docstore.Doc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, tokens FROM documents WHERE classifier = ? ORDER BY id`, s.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}
	defer rows.Close()

	docs := []docstore.Doc{}
	for rows.Next() {
		var (
			d      docstore.Doc
			tokens string
		)
		if err := rows.Scan(&d.Label, &tokens); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
		}
		if err := json.Unmarshal([]byte(tokens), &d.Tokens); err != nil {
			return nil, fmt.Errorf("%w: document tokens: %v", internalerr.ErrMalformedState, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrPersistence, err)
	}
	return docs, nil
}
