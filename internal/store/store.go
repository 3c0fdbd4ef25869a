// Package store keeps the revision history of each project's questionnaire
// in SQLite.
//
// Every accepted questionnaire (generated, refined, hand-edited or imported)
// is stored as canonical JSON under a per-project sequence number. Bodies
// are parsed and validated again whenever they are read back.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"qdesigner/internal/logging"
	"qdesigner/internal/model"
)

// Source records how a revision came to be.
type Source string

const (
	SourceGenerate Source = "generate"
	SourceRefine   Source = "refine"
	SourceEdit     Source = "edit"
	SourceImport   Source = "import"
)

func (s Source) valid() bool {
	switch s {
	case SourceGenerate, SourceRefine, SourceEdit, SourceImport:
		return true
	}
	return false
}

// ErrNotFound is returned when no revision matches.
var ErrNotFound = errors.New("revision not found")

// Revision is one stored questionnaire.
type Revision struct {
	ID            string
	Project       string
	Seq           int
	Source        Source
	Note          string
	CreatedAt     time.Time
	Questionnaire *model.Questionnaire
}

// Store is a SQLite-backed revision history.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `CREATE TABLE IF NOT EXISTS revisions (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	seq INTEGER NOT NULL,
	source TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE(project, seq)
);`

// Open opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{`PRAGMA journal_mode=WAL;`, schema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init store schema: %w", err)
		}
	}
	return &Store{db: db, logger: logging.OrNop(logger)}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save appends q to project's history.
func (s *Store) Save(ctx context.Context, project string, src Source, note string, q *model.Questionnaire, at time.Time) (*Revision, error) {
	if !src.valid() {
		return nil, fmt.Errorf("save revision: unknown source %q", src)
	}
	if q == nil {
		return nil, fmt.Errorf("save revision: nil questionnaire")
	}
	body, err := model.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("save revision: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("save revision: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM revisions WHERE project = ?`, project).Scan(&seq); err != nil {
		return nil, fmt.Errorf("save revision: next seq: %w", err)
	}
	rev := &Revision{
		ID:            uuid.NewString(),
		Project:       project,
		Seq:           seq,
		Source:        src,
		Note:          note,
		CreatedAt:     at.UTC(),
		Questionnaire: q,
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO revisions (id, project, seq, source, note, body, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rev.ID, project, seq, string(src), note, string(body), rev.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("save revision: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("save revision: commit: %w", err)
	}
	s.logger.Info("revision saved",
		zap.String("project", project),
		zap.Int("seq", seq),
		zap.String("source", string(src)))
	return rev, nil
}

const selectRevision = `SELECT id, project, seq, source, note, body, created_at FROM revisions`

// Latest returns the newest revision of project.
func (s *Store) Latest(ctx context.Context, project string) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+` WHERE project = ? ORDER BY seq DESC LIMIT 1`, project)
	return scanRevision(row)
}

// Get returns the revision with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+` WHERE id = ?`, id)
	return scanRevision(row)
}

// GetSeq returns revision seq of project.
func (s *Store) GetSeq(ctx context.Context, project string, seq int) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, selectRevision+` WHERE project = ? AND seq = ?`, project, seq)
	return scanRevision(row)
}

// List returns every revision of project, oldest first.
func (s *Store) List(ctx context.Context, project string) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx, selectRevision+` WHERE project = ? ORDER BY seq`, project)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var out []*Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(sc scanner) (*Revision, error) {
	var (
		rev     Revision
		src     string
		body    string
		created string
	)
	err := sc.Scan(&rev.ID, &rev.Project, &rev.Seq, &src, &rev.Note, &body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read revision: %w", err)
	}
	rev.Source = Source(src)
	if rev.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("revision %s: created_at: %w", rev.ID, err)
	}

	raw, err := model.Parse([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("revision %s: %w", rev.ID, err)
	}
	if rev.Questionnaire, err = model.Validate(raw); err != nil {
		return nil, fmt.Errorf("revision %s: %w", rev.ID, err)
	}
	return &rev, nil
}
