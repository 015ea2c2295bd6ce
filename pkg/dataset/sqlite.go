package dataset

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/crosswalk/pkg/lookup"
)

const entriesDDL = `CREATE TABLE IF NOT EXISTS entries (
	position  INTEGER PRIMARY KEY,
	source    TEXT NOT NULL,
	target    TEXT,
	targets   TEXT
)`

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open entry db: %w", err)
	}
	return db, nil
}

// loadSQLite reads the entries table in position order. Columns hold JSON.
func loadSQLite(path string) ([]lookup.Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("entry db: %w", err)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT position, source, target, targets FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []lookup.Entry
	for rows.Next() {
		var (
			pos             int64
			source          string
			target, targets sql.NullString
		)
		if err := rows.Scan(&pos, &source, &target, &targets); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		var e lookup.Entry
		if err := json.Unmarshal([]byte(source), &e.Source); err != nil {
			return nil, fmt.Errorf("entry %d: decode source: %w", pos, err)
		}
		if target.Valid {
			if err := json.Unmarshal([]byte(target.String), &e.Target); err != nil {
				return nil, fmt.Errorf("entry %d: decode target: %w", pos, err)
			}
		}
		if targets.Valid {
			if err := json.Unmarshal([]byte(targets.String), &e.Targets); err != nil {
				return nil, fmt.Errorf("entry %d: decode targets: %w", pos, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveSQLite writes entries to a fresh entries table at path, replacing any
// existing rows.
func SaveSQLite(entries []lookup.Entry, path string) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(entriesDDL); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries (position, source, target, targets) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		source, err := json.Marshal(e.Source)
		if err != nil {
			return fmt.Errorf("entry %d: encode source: %w", i, err)
		}
		var target, targets sql.NullString
		if e.HasTarget() {
			b, err := json.Marshal(e.Target)
			if err != nil {
				return fmt.Errorf("entry %d: encode target: %w", i, err)
			}
			target = sql.NullString{String: string(b), Valid: true}
		}
		if e.HasTargets() {
			b, err := json.Marshal(e.Targets)
			if err != nil {
				return fmt.Errorf("entry %d: encode targets: %w", i, err)
			}
			targets = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.Exec(i, string(source), target, targets); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	return tx.Commit()
}
