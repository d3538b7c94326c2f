package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS notes (
	note_id        TEXT PRIMARY KEY,
	text           TEXT NOT NULL,
	tag            TEXT NOT NULL,
	zone           TEXT NOT NULL,
	entropy        REAL NOT NULL,
	lens           TEXT,
	metadata_json  TEXT,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	payload_json  TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS process_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	note_id        TEXT NOT NULL,
	zone           TEXT NOT NULL,
	entropy        REAL NOT NULL,
	dominant_topic TEXT,
	metadata_json  TEXT,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (note_id) REFERENCES notes(note_id)
);
`
// #endregion schema

// #region store-struct
// Store persists notes, the symbolic snapshot and the process log in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection. The caller owns migrations.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region save-note
// SaveNote inserts a note, assigning an ID and timestamp when absent, and
// returns the stored record.
func (s *Store) SaveNote(n Note) (Note, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO notes (note_id, text, tag, zone, entropy, lens, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Text, n.Tag, n.Zone, n.Entropy,
		nullIfEmpty(n.Lens), nullIfEmpty(n.MetadataJSON),
		n.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}
// #endregion save-note

// #region get-note
// GetNote retrieves a note by ID.
func (s *Store) GetNote(id string) (Note, error) {
	row := s.db.QueryRow(
		`SELECT note_id, text, tag, zone, entropy, lens, metadata_json, created_at
		 FROM notes WHERE note_id = ?`, id,
	)
	n, err := scanNote(row)
	if err != nil {
		return Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}
// #endregion get-note

// #region list-notes
// ListNotes returns the most recent notes, newest first. A zone filter of ""
// matches everything.
func (s *Store) ListNotes(zone string, limit int) ([]Note, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT note_id, text, tag, zone, entropy, lens, metadata_json, created_at
	          FROM notes`
	args := []interface{}{}
	if zone != "" {
		query += ` WHERE zone = ?`
		args = append(args, zone)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
// #endregion list-notes

// #region snapshot
// SaveSnapshot upserts the single snapshot row.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshot (id, payload_json, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload_json = excluded.payload_json, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot row. ok is false when none was ever saved.
func (s *Store) LoadSnapshot() (Snapshot, bool, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload_json FROM snapshot WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}
// #endregion snapshot

// #region process-log
// LogProcess writes a provenance entry for one processed message. The note
// row is inserted in the same transaction so provenance never dangles.
func (s *Store) LogProcess(n Note, entry ProcessEntry) (Note, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = n.CreatedAt
	}
	entry.NoteID = n.ID

	tx, err := s.db.Begin()
	if err != nil {
		return Note{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO notes (note_id, text, tag, zone, entropy, lens, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Text, n.Tag, n.Zone, n.Entropy,
		nullIfEmpty(n.Lens), nullIfEmpty(n.MetadataJSON),
		n.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO process_log (note_id, zone, entropy, dominant_topic, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.NoteID, entry.Zone, entry.Entropy,
		nullIfEmpty(entry.DominantTopic), nullIfEmpty(entry.MetadataJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Note{}, fmt.Errorf("insert process entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Note{}, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// RecentProcessLog returns the most recent provenance entries, newest first.
func (s *Store) RecentProcessLog(limit int) ([]ProcessEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT note_id, zone, entropy, dominant_topic, metadata_json, created_at
		 FROM process_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent process log: %w", err)
	}
	defer rows.Close()

	var entries []ProcessEntry
	for rows.Next() {
		var e ProcessEntry
		var topic, meta sql.NullString
		var created string
		if err := rows.Scan(&e.NoteID, &e.Zone, &e.Entropy, &topic, &meta, &created); err != nil {
			return nil, fmt.Errorf("scan process entry: %w", err)
		}
		e.DominantTopic = topic.String
		e.MetadataJSON = meta.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion process-log

// #region helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNote(row rowScanner) (Note, error) {
	var n Note
	var lens, meta sql.NullString
	var created string
	if err := row.Scan(&n.ID, &n.Text, &n.Tag, &n.Zone, &n.Entropy, &lens, &meta, &created); err != nil {
		return Note{}, err
	}
	n.Lens = lens.String
	n.MetadataJSON = meta.String
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return n, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
