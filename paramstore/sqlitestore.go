// Package paramstore persists parameter sets (θ) as named snapshots.
//
// A snapshot holds every parameter group of one registry together with the
// seed it was initialised from and the YAML model configuration that built
// the registry, so a later process can rebuild the same model and reuse θ.
package paramstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jimimvp/CausalProb/params"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound indicates an unknown snapshot id.
	ErrNotFound = errors.New("paramstore: snapshot not found")

	// ErrInvalidID indicates an id that is not a UUID.
	ErrInvalidID = errors.New("paramstore: invalid snapshot id")
)

// Snapshot is one stored θ.
type Snapshot struct {
	ID        string
	Label     string
	Seed      int64
	Config    []byte // YAML model configuration
	Theta     params.Set
	CreatedAt time.Time
}

// Summary describes a snapshot without its parameters.
type Summary struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Seed      int64     `json:"seed"`
	Groups    int       `json:"groups"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the snapshot persistence contract.
type Store interface {
	Save(ctx context.Context, snap Snapshot) (string, error)
	Load(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// SQLiteStore keeps snapshots in a SQLite database in WAL mode.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (or creates) the store at dsn.
func Open(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("paramstore: open: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("paramstore: set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("paramstore: create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save stores snap in one transaction and returns its id. An empty ID gets
// a fresh UUID; saving an existing ID replaces that snapshot.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	id := snap.ID
	if id == "" {
		id = uuid.New().String()
	} else if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	created := snap.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("paramstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM param_groups WHERE snapshot_id = ?`, id); err != nil {
		return "", fmt.Errorf("paramstore: save: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (id, label, seed, config, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, snap.Label, snap.Seed, string(snap.Config), created.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("paramstore: save: %w", err)
	}
	for _, key := range snap.Theta.Keys() {
		blob, err := json.Marshal(snap.Theta[key])
		if err != nil {
			return "", fmt.Errorf("paramstore: marshal %q: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO param_groups (snapshot_id, group_key, blob) VALUES (?, ?, ?)`,
			id, key, string(blob),
		); err != nil {
			return "", fmt.Errorf("paramstore: save %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("paramstore: commit: %w", err)
	}

	return id, nil
}

// Load returns the snapshot id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	var (
		snap    = Snapshot{ID: id, Theta: params.Set{}}
		config  string
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT label, seed, config, created_at FROM snapshots WHERE id = ?`, id,
	).Scan(&snap.Label, &snap.Seed, &config, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("paramstore: load: %w", err)
	}
	snap.Config = []byte(config)
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Snapshot{}, fmt.Errorf("paramstore: parse time %q: %w", created, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT group_key, blob FROM param_groups WHERE snapshot_id = ? ORDER BY group_key`, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("paramstore: load groups: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, blob string
		if err := rows.Scan(&key, &blob); err != nil {
			return Snapshot{}, fmt.Errorf("paramstore: scan group: %w", err)
		}
		var b params.Blob
		if err := json.Unmarshal([]byte(blob), &b); err != nil {
			return Snapshot{}, fmt.Errorf("paramstore: unmarshal %q: %w", key, err)
		}
		snap.Theta[key] = b
	}

	return snap, rows.Err()
}

// List returns every snapshot, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.label, s.seed, s.created_at, COUNT(g.group_key)
		   FROM snapshots s LEFT JOIN param_groups g ON g.snapshot_id = s.id
		  GROUP BY s.id ORDER BY s.created_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("paramstore: list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Label, &sum.Seed, &created, &sum.Groups); err != nil {
			return nil, fmt.Errorf("paramstore: scan snapshot: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("paramstore: parse time %q: %w", created, err)
		}
		out = append(out, sum)
	}

	return out, rows.Err()
}

// Delete removes snapshot id and its parameter groups.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("paramstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("paramstore: delete: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("paramstore: delete: %w", err)
	} else if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM param_groups WHERE snapshot_id = ?`, id); err != nil {
		return fmt.Errorf("paramstore: delete groups: %w", err)
	}

	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
