// Package sqlite provides a SQLite-backed reference build of the recall
// memory engine.
//
// It keeps only what the add-on needs to be exercised end to end: a
// documents table and a storage handle that can genuinely drop and
// reconnect. Keyword and vector indexing and retrieval ranking are the
// production engine's business and are not reproduced here.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/engine"
)

// Memory is a stored row, exposed for tests and the dev server.
type Memory struct {
	ID         string
	Content    string
	Summary    string
	SessionID  string
	PersonaID  string
	Importance float64
	Metadata   map[string]any
}

// Engine implements engine.Engine over a SQLite database.
type Engine struct {
	path string
	log  *zap.Logger

	mu sync.Mutex
	db *sql.DB
}

// NewEngine opens (or creates) the database at path and initializes the
// schema. The path can be ":memory:" for tests.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	e := &Engine{
		path: path,
		log:  log,
	}

	if err := e.open(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) open() error {
	db, err := sql.Open("sqlite3", e.path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return fmt.Errorf("setting journal mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		content     TEXT NOT NULL,
		summary     TEXT NOT NULL,
		session_id  TEXT NOT NULL,
		persona_id  TEXT,
		importance  REAL NOT NULL,
		metadata    TEXT NOT NULL,
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("initializing schema: %w", err)
	}

	e.db = db
	return nil
}

// AddMemory inserts one record.
func (e *Engine) AddMemory(ctx context.Context, req engine.AddRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return "", engine.ErrNotConnected
	}

	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	id := uuid.NewString()

	if _, err := e.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, summary, session_id, persona_id, importance, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, req.Content, req.Summary, req.SessionID, req.PersonaID, req.Importance, string(metadata),
	); err != nil {
		return "", fmt.Errorf("inserting memory: %w", err)
	}

	e.log.Debug("memory stored",
		zap.String("id", id),
		zap.String("session", req.SessionID),
	)

	return id, nil
}

// Ready reports whether the storage handle is present.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db != nil
}

// Reconnect reopens the storage handle after a drop.
func (e *Engine) Reconnect(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db != nil {
		return nil
	}

	return e.open()
}

// Close releases the storage handle. A later Reconnect reopens it, which
// is also how tests simulate the idle-cleanup handle drop.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}

	err := e.db.Close()
	e.db = nil
	return err
}

// Get loads one stored memory by id, for tests and the dev server.
func (e *Engine) Get(ctx context.Context, id string) (*Memory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil, engine.ErrNotConnected
	}

	row := e.db.QueryRowContext(ctx,
		`SELECT id, content, summary, session_id, COALESCE(persona_id, ''), importance, metadata
		 FROM memories WHERE id = ?`, id)

	var m Memory
	var metadata string
	if err := row.Scan(&m.ID, &m.Content, &m.Summary, &m.SessionID, &m.PersonaID, &m.Importance, &metadata); err != nil {
		return nil, fmt.Errorf("loading memory %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
	}

	return &m, nil
}

// Count returns the number of stored memories.
func (e *Engine) Count(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return 0, engine.ErrNotConnected
	}

	var n int
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting memories: %w", err)
	}

	return n, nil
}
