// Package corpus stores patient records as ordered text fragments in a
// single SQLite database. One patient maps to one logical document; the
// fragment order is the page order of the source exports.
package corpus

import (
	"bufio"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrPatientNotFound reports an unknown patient identifier. A missing
// patient is a caller mistake, not a data-quality condition.
var ErrPatientNotFound = errors.New("patient not found")

const schema = `
CREATE TABLE IF NOT EXISTS patients (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS fragments (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	patient_id   INTEGER NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	content      TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	source_file  TEXT NOT NULL DEFAULT '',
	UNIQUE(patient_id, content_hash)
);
CREATE INDEX IF NOT EXISTS idx_fragments_patient ON fragments(patient_id, seq);
`

// Store is the SQLite-backed record source.
type Store struct {
	db *sql.DB
}

// NewStore opens (and initializes) the database at dbPath. Pass
// ":memory:" for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the patient's fragments in page order.
func (s *Store) Load(ctx context.Context, slug string) ([]string, error) {
	var patientID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM patients WHERE slug = ?", slug).Scan(&patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up patient: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT content FROM fragments WHERE patient_id = ? ORDER BY seq", patientID)
	if err != nil {
		return nil, fmt.Errorf("loading fragments: %w", err)
	}
	defer rows.Close()

	var fragments []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}
		fragments = append(fragments, content)
	}
	return fragments, rows.Err()
}

// Patients lists every stored patient slug, sorted.
func (s *Store) Patients(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT slug FROM patients ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning patient: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// AddFragment appends one fragment to a patient, creating the patient
// on first use. Re-adding identical content is a no-op (content-hash
// dedup), so re-running an ingest is safe.
func (s *Store) AddFragment(ctx context.Context, slug, content, sourceFile string) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO patients(slug) VALUES (?)", slug); err != nil {
		return fmt.Errorf("upserting patient: %w", err)
	}
	var patientID int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT id FROM patients WHERE slug = ?", slug).Scan(&patientID); err != nil {
		return fmt.Errorf("looking up patient: %w", err)
	}

	hash := sha256.Sum256([]byte(content))
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO fragments(patient_id, seq, content, content_hash, source_file)
		VALUES (?, (SELECT COALESCE(MAX(seq), -1) + 1 FROM fragments WHERE patient_id = ?), ?, ?, ?)`,
		patientID, patientID, content, fmt.Sprintf("%x", hash), sourceFile)
	if err != nil {
		return fmt.Errorf("inserting fragment: %w", err)
	}
	return nil
}

type jsonlRecord struct {
	Text string `json:"text"`
}

// IngestDir walks dataDir, treating each subdirectory as one patient
// slug holding *.jsonl exports ({"text": ...} per line). Files load in
// name order so fragment order follows page order. Malformed lines are
// skipped, not fatal.
func (s *Store) IngestDir(ctx context.Context, dataDir string) (patients, fragments int, err error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading data dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		slug := entry.Name()
		n, err := s.ingestPatient(ctx, slug, filepath.Join(dataDir, slug))
		if err != nil {
			return patients, fragments, fmt.Errorf("ingesting %s: %w", slug, err)
		}
		if n > 0 {
			patients++
			fragments += n
		}
	}
	return patients, fragments, nil
}

func (s *Store) ingestPatient(ctx context.Context, slug, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading patient dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jsonl") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	count := 0
	for _, name := range files {
		n, err := s.ingestFile(ctx, slug, filepath.Join(dir, name))
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, nil
}

func (s *Store) ingestFile(ctx context.Context, slug, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Text == "" {
			continue
		}
		if err := s.AddFragment(ctx, slug, rec.Text, filepath.Base(path)); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scanning %s: %w", path, err)
	}
	return count, nil
}
