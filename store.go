package main

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the sqlite mirror. The sync loop writes app_details,
// handlers write visitors and scores; sqlite's own locking is the
// only concurrency control (single writer, WAL readers).
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS system_meta (key TEXT PRIMARY KEY, value TEXT);

CREATE TABLE IF NOT EXISTS app_details (
	name TEXT PRIMARY KEY,
	version TEXT,
	changelog TEXT,
	updated_on TEXT,
	release_date TEXT
);

CREATE TABLE IF NOT EXISTS visitors (
	id TEXT PRIMARY KEY,
	app TEXT,
	year INTEGER,
	month INTEGER,
	count INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	app TEXT,
	user TEXT,
	score REAL,
	date INTEGER,
	signature TEXT
);
CREATE INDEX IF NOT EXISTS idx_scores_app_date ON scores (app, date);
`

// openStore opens (creating if needed) the database and applies the
// schema. driver is "sqlite3" in the binary; tests pass the pure-Go
// "sqlite" driver so they run without cgo.
func openStore(driver, path string) (*Store, error) {
	dsn := path
	if driver == "sqlite3" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// One writer keeps sqlite out of SQLITE_BUSY territory.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// --- System Meta ---

func (s *Store) MetaGet(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM system_meta WHERE key=?", key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

func (s *Store) MetaSet(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO system_meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// --- App Details ---

// UpsertAppDetail applies the newer-wins rule: an incoming row
// replaces the stored one only when its updated_on is strictly
// greater. Re-applying a batch is a no-op.
func (s *Store) UpsertAppDetail(d AppDetail) error {
	_, err := s.db.Exec(`
		INSERT INTO app_details (name, version, changelog, updated_on, release_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			changelog = excluded.changelog,
			updated_on = excluded.updated_on,
			release_date = excluded.release_date
		WHERE excluded.updated_on > app_details.updated_on`,
		d.Name, d.Version, d.Changelog, d.UpdatedOn, d.ReleaseDate)
	return err
}

// AppDetails returns all rows, or the single row matching name when
// name is non-empty. Unknown names yield an empty slice, not an error.
func (s *Store) AppDetails(name string) ([]AppDetail, error) {
	query := "SELECT name, version, changelog, updated_on, release_date FROM app_details ORDER BY name"
	args := []interface{}{}
	if name != "" {
		query = "SELECT name, version, changelog, updated_on, release_date FROM app_details WHERE name=?"
		args = append(args, name)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []AppDetail{}
	for rows.Next() {
		var d AppDetail
		if err := rows.Scan(&d.Name, &d.Version, &d.Changelog, &d.UpdatedOn, &d.ReleaseDate); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (s *Store) AppExists(name string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT count(*) FROM app_details WHERE name=?", name).Scan(&count)
	return count > 0, err
}

// --- Visitors ---

// visitorID canonicalizes the counter key: year and month are parsed
// as integers upstream and re-rendered zero-padded, so "3" and "03"
// address the same row.
func visitorID(app string, year, month int) string {
	return fmt.Sprintf("%s.%04d.%02d", app, year, month)
}

func (s *Store) RecordVisit(app string, year, month int) error {
	_, err := s.db.Exec(`
		INSERT INTO visitors (id, app, year, month, count) VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET count = count + 1`,
		visitorID(app, year, month), app, year, month)
	return err
}

// VisitCount returns 0 for counters that were never created.
func (s *Store) VisitCount(app string, year, month int) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT count FROM visitors WHERE id=?", visitorID(app, year, month)).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}

// --- Scores ---

func (s *Store) InsertScore(e ScoreEntry) error {
	_, err := s.db.Exec(
		"INSERT INTO scores (app, user, score, date, signature) VALUES (?, ?, ?, ?, ?)",
		e.App, e.User, e.Score, e.Date, e.Signature)
	return err
}

// Two fixed query shapes, direction baked in. The window is always a
// bind parameter; nothing user-supplied is spliced into SQL.
const (
	topScoresDesc = `
		SELECT user, score, date, signature FROM (
			SELECT user, score, date, signature,
				ROW_NUMBER() OVER (PARTITION BY signature ORDER BY score DESC, date ASC) AS rn
			FROM scores WHERE app = ? AND date >= ?
		) WHERE rn = 1
		ORDER BY score DESC, date ASC
		LIMIT ?`
	topScoresAsc = `
		SELECT user, score, date, signature FROM (
			SELECT user, score, date, signature,
				ROW_NUMBER() OVER (PARTITION BY signature ORDER BY score ASC, date ASC) AS rn
			FROM scores WHERE app = ? AND date >= ?
		) WHERE rn = 1
		ORDER BY score ASC, date ASC
		LIMIT ?`
)

// TopScores returns one row per distinct signature: the maximum score
// when descending, the minimum when ascending, earliest date breaking
// ties. since is the window start in unix seconds (0 = lifetime).
func (s *Store) TopScores(app string, since int64, limit int, descending bool) ([]ScoreEntry, error) {
	query := topScoresDesc
	if !descending {
		query = topScoresAsc
	}
	rows, err := s.db.Query(query, app, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []ScoreEntry{}
	for rows.Next() {
		e := ScoreEntry{App: app}
		if err := rows.Scan(&e.User, &e.Score, &e.Date, &e.Signature); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
