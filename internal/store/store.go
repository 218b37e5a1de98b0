// Package store persists scenes and generated props in SQLite.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"rig-animator/internal/prop"
	"rig-animator/internal/scene"
	"rig-animator/internal/store/migrations"
)

var (
	// ErrNotFound is returned when a scene or prop does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an id is already taken.
	ErrDuplicate = errors.New("store: duplicate id")
)

// Store is a SQLite-backed scene library.
type Store struct {
	db *sql.DB
}

// SceneInfo summarizes a stored scene.
type SceneInfo struct {
	ID        string
	Name      string
	Keyframes int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveScene inserts or replaces the scene named d.Name.
func (s *Store) SaveScene(ctx context.Context, d scene.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("store: scene name is required")
	}
	var buf bytes.Buffer
	if err := scene.Encode(&buf, d); err != nil {
		return err
	}
	now := toMillis(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scenes (id, name, document, keyframes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   document = excluded.document,
		   keyframes = excluded.keyframes,
		   updated_at = excluded.updated_at`,
		uuid.NewString(), name, buf.String(), len(d.Keyframes), now, now,
	)
	if err != nil {
		return fmt.Errorf("store: save scene %s: %w", name, err)
	}
	return nil
}

// LoadScene returns the scene named name.
func (s *Store) LoadScene(ctx context.Context, name string) (scene.Document, error) {
	if err := ctx.Err(); err != nil {
		return scene.Document{}, err
	}
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM scenes WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return scene.Document{}, fmt.Errorf("store: scene %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return scene.Document{}, fmt.Errorf("store: load scene %s: %w", name, err)
	}
	return scene.Decode(strings.NewReader(raw))
}

// ListScenes returns every stored scene, most recently updated first.
func (s *Store) ListScenes(ctx context.Context) ([]SceneInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, keyframes, created_at, updated_at FROM scenes ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list scenes: %w", err)
	}
	defer rows.Close()

	var out []SceneInfo
	for rows.Next() {
		var info SceneInfo
		var created, updated int64
		if err := rows.Scan(&info.ID, &info.Name, &info.Keyframes, &created, &updated); err != nil {
			return nil, fmt.Errorf("store: scan scene: %w", err)
		}
		info.CreatedAt = fromMillis(created)
		info.UpdatedAt = fromMillis(updated)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list scenes: %w", err)
	}
	return out, nil
}

// DeleteScene removes the scene named name.
func (s *Store) DeleteScene(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete scene %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: scene %s: %w", name, ErrNotFound)
	}
	return nil
}

// SaveProp adds p to the prop library. description is the text it was
// generated from, if any.
func (s *Store) SaveProp(ctx context.Context, p prop.Prop, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("store: prop id is required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: encode prop %s: %w", p.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO props (id, name, description, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, description, string(raw), toMillis(time.Now()),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("store: prop %s: %w", p.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("store: save prop %s: %w", p.ID, err)
	}
	return nil
}

// Props returns the prop library, oldest first.
func (s *Store) Props(ctx context.Context) (prop.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM props ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list props: %w", err)
	}
	defer rows.Close()

	var out prop.List
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan prop: %w", err)
		}
		var p prop.Prop
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("store: decode prop: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list props: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
