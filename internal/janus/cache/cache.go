// Package cache maintains a SQLite mirror of the Markdown ticket and plan
// directories, keyed by file modification time, for fast cold-start scans
// without re-parsing every file that hasn't changed.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/janus-md/janus/internal/janus/locator"
)

// Cache wraps a SQLite connection holding the ticket/plan mirror tables.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the tickets and plans tables exist.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			mtime_ns INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_mtime ON tickets(mtime_ns)`,
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			mtime_ns INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_mtime ON plans(mtime_ns)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating cache schema: %w", err)
		}
	}
	return nil
}

// Table describes one mirrored directory: its SQLite table, how to scan
// its source directory for (id, mtime) pairs, and how to parse a changed
// file into its serialized payload.
type Table struct {
	Name      string
	ScanDir   func() (map[string]int64, error)
	ParseFile func(id string) (payload string, mtimeNS int64, err error)
}

// TicketTable returns the Table descriptor for the ticket directory under
// root. Rows are keyed by ticket ID and the payload is the raw file
// content, so callers can hand it straight to ticket.Parse without
// rereading the file.
func TicketTable(root string) Table {
	return markdownTable("tickets", locator.ItemsDir(root))
}

// PlanTable returns the Table descriptor for the plan directory under
// root.
func PlanTable(root string) Table {
	return markdownTable("plans", locator.PlansDir(root))
}

func markdownTable(name, dir string) Table {
	return Table{
		Name:    name,
		ScanDir: func() (map[string]int64, error) { return ScanMarkdownDir(dir) },
		ParseFile: func(id string) (string, int64, error) {
			path := filepath.Join(dir, id+".md")
			data, err := os.ReadFile(path)
			if err != nil {
				return "", 0, err
			}
			info, err := os.Stat(path)
			if err != nil {
				return "", 0, err
			}
			return string(data), mtimeNanos(info), nil
		},
	}
}

// mtimeNanos returns a file's modification time as nanoseconds since the
// Unix epoch, matching the original implementation's comparison key.
func mtimeNanos(info os.FileInfo) int64 {
	return info.ModTime().UnixNano()
}

// ScanMarkdownDir lists "<id>.md" files in dir and returns their IDs
// mapped to modification time in nanoseconds. A missing directory yields
// an empty map, not an error.
func ScanMarkdownDir(dir string) (map[string]int64, error) {
	files := make(map[string]int64)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		id := entry.Name()[:len(entry.Name())-len(".md")]
		files[id] = mtimeNanos(info)
	}
	return files, nil
}

// Sync scans t's directory, diffs against the cached mtimes in t.Name,
// and applies adds/modifies/removes in a single transaction. Returns
// whether anything changed. A parse failure for one file is logged to
// warnings and that file is skipped, matching the original's
// warn-and-continue behavior.
func (c *Cache) Sync(t Table) (changed bool, warnings []string, err error) {
	diskFiles, err := t.ScanDir()
	if err != nil {
		return false, nil, err
	}

	cached, err := c.cachedMtimes(t.Name)
	if err != nil {
		return false, nil, err
	}

	var added, modified, removed []string
	for id, mtime := range diskFiles {
		if cachedMtime, ok := cached[id]; ok {
			if cachedMtime != mtime {
				modified = append(modified, id)
			}
		} else {
			added = append(added, id)
		}
	}
	for id := range cached {
		if _, ok := diskFiles[id]; !ok {
			removed = append(removed, id)
		}
	}

	if len(added) == 0 && len(modified) == 0 && len(removed) == 0 {
		return false, nil, nil
	}

	type upsert struct {
		id      string
		payload string
		mtime   int64
	}
	var upserts []upsert
	for _, id := range append(append([]string{}, added...), modified...) {
		payload, mtime, err := t.ParseFile(id)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping %s %q: %v", t.Name, id, err))
			continue
		}
		upserts = append(upserts, upsert{id: id, payload: payload, mtime: mtime})
	}

	tx, err := c.db.Begin()
	if err != nil {
		return false, warnings, fmt.Errorf("starting cache transaction: %w", err)
	}
	defer tx.Rollback()

	upsertSQL := fmt.Sprintf(
		`INSERT INTO %s (id, mtime_ns, payload) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET mtime_ns = excluded.mtime_ns, payload = excluded.payload`,
		t.Name,
	)
	for _, u := range upserts {
		if _, err := tx.Exec(upsertSQL, u.id, u.mtime, u.payload); err != nil {
			return false, warnings, fmt.Errorf("upserting %s %q: %w", t.Name, u.id, err)
		}
	}

	deleteSQL := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.Name)
	for _, id := range removed {
		if _, err := tx.Exec(deleteSQL, id); err != nil {
			return false, warnings, fmt.Errorf("deleting %s %q: %w", t.Name, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, warnings, fmt.Errorf("committing cache transaction: %w", err)
	}

	return true, warnings, nil
}

func (c *Cache) cachedMtimes(table string) (map[string]int64, error) {
	rows, err := c.db.Query(fmt.Sprintf(`SELECT id, mtime_ns FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("reading cached mtimes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id string
		var mtime int64
		if err := rows.Scan(&id, &mtime); err != nil {
			return nil, fmt.Errorf("scanning cached mtime row: %w", err)
		}
		out[id] = mtime
	}
	return out, rows.Err()
}

// Payload fetches the cached payload for id in table, and whether it was
// found.
func (c *Cache) Payload(table, id string) (string, bool, error) {
	var payload string
	err := c.db.QueryRow(fmt.Sprintf(`SELECT payload FROM %s WHERE id = ?`, table), id).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading payload: %w", err)
	}
	return payload, true, nil
}

// AllPayloads returns every cached payload in table, keyed by id.
func (c *Cache) AllPayloads(table string) (map[string]string, error) {
	rows, err := c.db.Query(fmt.Sprintf(`SELECT id, payload FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("reading payloads: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning payload row: %w", err)
		}
		out[id] = payload
	}
	return out, rows.Err()
}
