package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// migrations[i] moves the schema from version i to i+1.
var migrations = []string{
	`CREATE TABLE memories (
		project_id TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (project_id, key)
	);`,
	`CREATE TABLE todos (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL,
		content    TEXT NOT NULL,
		done       INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX todos_project ON todos(project_id, id);`,
}

// SQLite stores memories and todos in one database file.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

var (
	_ Storage   = (*SQLite)(nil)
	_ TodoStore = (*SQLite)(nil)
)

// OpenSQLite opens (creating if needed) the database at path and brings
// its schema up to date. ":memory:" gives a private in-process database.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection: writes are serialized and ":memory:" stays a single database
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// SchemaVersion reports the applied migration count.
func (s *SQLite) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations`).Scan(&v)
	return v, err
}

func (s *SQLite) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)`); err != nil {
		return err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(0)`); err != nil {
			return err
		}
	}
	cur, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for v := cur; v < len(migrations); v++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate up to v%d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE schema_migrations SET version=?`, v+1); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.log.Debug("memory schema migrated", zap.Int("version", v+1))
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, projectID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories(project_id, key, value, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(project_id, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		projectID, key, value, time.Now().UnixMilli())
	return err
}

func (s *SQLite) Recall(ctx context.Context, projectID, key string) (Entry, error) {
	e := Entry{ProjectID: projectID, Key: key}
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM memories WHERE project_id=? AND key=?`, projectID, key).Scan(&e.Value, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = time.UnixMilli(ts)
	return e, nil
}

func (s *SQLite) List(ctx context.Context, projectID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM memories WHERE project_id=? ORDER BY key`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e := Entry{ProjectID: projectID}
		var ts int64
		if err := rows.Scan(&e.Key, &e.Value, &ts); err != nil {
			return nil, err
		}
		e.UpdatedAt = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, projectID, key string) error {
	return s.affectOne(s.db.ExecContext(ctx, `DELETE FROM memories WHERE project_id=? AND key=?`, projectID, key))
}

func (s *SQLite) Update(ctx context.Context, projectID, key, value string) error {
	return s.affectOne(s.db.ExecContext(ctx,
		`UPDATE memories SET value=?, updated_at=? WHERE project_id=? AND key=?`,
		value, time.Now().UnixMilli(), projectID, key))
}

func (s *SQLite) AddTodo(ctx context.Context, projectID, content string) (Todo, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos(project_id, content, created_at) VALUES(?, ?, ?)`, projectID, content, now.UnixMilli())
	if err != nil {
		return Todo{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Todo{}, err
	}
	return Todo{ID: int(id), Content: content, CreatedAt: time.UnixMilli(now.UnixMilli())}, nil
}

func (s *SQLite) CompleteTodo(ctx context.Context, projectID string, id int) (Todo, error) {
	if err := s.affectOne(s.db.ExecContext(ctx,
		`UPDATE todos SET done=1 WHERE project_id=? AND id=?`, projectID, id)); err != nil {
		return Todo{}, err
	}
	t := Todo{ID: id, Done: true}
	var ts int64
	err := s.db.QueryRowContext(ctx, `SELECT content, created_at FROM todos WHERE id=?`, id).Scan(&t.Content, &ts)
	t.CreatedAt = time.UnixMilli(ts)
	return t, err
}

func (s *SQLite) RemoveTodo(ctx context.Context, projectID string, id int) error {
	return s.affectOne(s.db.ExecContext(ctx, `DELETE FROM todos WHERE project_id=? AND id=?`, projectID, id))
}

func (s *SQLite) Todos(ctx context.Context, projectID string) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, done, created_at FROM todos WHERE project_id=? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Todo
	for rows.Next() {
		var t Todo
		var ts int64
		if err := rows.Scan(&t.ID, &t.Content, &t.Done, &ts); err != nil {
			return nil, err
		}
		t.CreatedAt = time.UnixMilli(ts)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLite) ClearTodos(ctx context.Context, projectID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE project_id=?`, projectID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLite) affectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
