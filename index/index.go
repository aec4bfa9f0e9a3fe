// Package index - Register der Modell-Dateien
//
// Dieses Modul enthaelt:
// - Entry: Eintrag pro Datei mit Typ, Familien und Kennzahlen
// - Index: SQLite-Register (Open, Close, Put, Get, List, Delete)
// - Files: Unterstuetzte Dateien eines Verzeichnisses (gecacht)
// - Scan: Klassifiziert ein Verzeichnis parallel und traegt es ein
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite-Treiber registrieren

	"github.com/mgua/sdbx/classify"
	"github.com/mgua/sdbx/tuner"
)

// ErrNotIndexed wenn ein Pfad nicht im Register steht
var ErrNotIndexed = errors.New("model not indexed")

// Entry beschreibt eine registrierte Modell-Datei
type Entry struct {
	Path        string    `json:"path"`
	Kind        Kind      `json:"kind"`
	Format      string    `json:"format"`
	SizeBytes   int64     `json:"size_bytes"`
	Dtype       string    `json:"dtype,omitempty"`
	TensorCount int       `json:"tensor_count"`
	Families    []string  `json:"families"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Index ist das Register. SQLite serialisiert Schreiber selbst, daher gibt
// es keine eigenen Locks.
type Index struct {
	conn       *sql.DB
	classifier *classify.Classifier
	files      *tuner.SeqCache[string]
}

// Open oeffnet oder erstellt das Register unter path
func Open(path string, c *classify.Classifier) (*Index, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping index: %w", err)
	}

	idx := &Index{conn: conn, classifier: c, files: tuner.NewSeqCache[string]()}
	if err := idx.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize index: %w", err)
	}

	return idx, nil
}

// Close schliesst die Datenbankverbindung
func (idx *Index) Close() error {
	_, _ = idx.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return idx.conn.Close()
}

func (idx *Index) init() error {
	_, err := idx.conn.Exec(`
	CREATE TABLE IF NOT EXISTS models (
		path TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		format TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		dtype TEXT NOT NULL DEFAULT '',
		tensor_count INTEGER NOT NULL DEFAULT 0,
		families TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_models_kind ON models(kind);
	`)
	return err
}

// Put traegt e ein oder aktualisiert den vorhandenen Eintrag
func (idx *Index) Put(ctx context.Context, e Entry) error {
	if _, err := ParseKind(string(e.Kind)); err != nil {
		return err
	}

	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}

	_, err := idx.conn.ExecContext(ctx, `
		INSERT INTO models (path, kind, format, size_bytes, dtype, tensor_count, families, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind,
			format = excluded.format,
			size_bytes = excluded.size_bytes,
			dtype = excluded.dtype,
			tensor_count = excluded.tensor_count,
			families = excluded.families,
			updated_at = excluded.updated_at
	`, e.Path, string(e.Kind), e.Format, e.SizeBytes, e.Dtype, e.TensorCount, strings.Join(e.Families, ","), e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put %s: %w", e.Path, err)
	}
	return nil
}

const selectEntry = `SELECT path, kind, format, size_bytes, dtype, tensor_count, families, updated_at FROM models`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var kind, families string
	if err := s.Scan(&e.Path, &kind, &e.Format, &e.SizeBytes, &e.Dtype, &e.TensorCount, &families, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}

	e.Kind = Kind(kind)
	e.Families = []string{}
	if families != "" {
		e.Families = strings.Split(families, ",")
	}
	return e, nil
}

// Get gibt den Eintrag fuer path zurueck
func (idx *Index) Get(ctx context.Context, path string) (Entry, error) {
	e, err := scanEntry(idx.conn.QueryRowContext(ctx, selectEntry+` WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotIndexed, path)
	} else if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", path, err)
	}
	return e, nil
}

// List gibt alle Eintraege sortiert nach Pfad zurueck. Ein leerer kind
// listet alle Typen.
func (idx *Index) List(ctx context.Context, kind Kind) ([]Entry, error) {
	query, args := selectEntry+` ORDER BY path`, []any{}
	if kind != "" {
		query, args = selectEntry+` WHERE kind = ? ORDER BY path`, []any{string(kind)}
	}

	rows, err := idx.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete entfernt den Eintrag fuer path
func (idx *Index) Delete(ctx context.Context, path string) error {
	res, err := idx.conn.ExecContext(ctx, `DELETE FROM models WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotIndexed, path)
	}
	return nil
}
