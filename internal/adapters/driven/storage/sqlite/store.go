package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsuite/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
)

const (
	typeTag     = "$type"
	tagTime     = "TIME"
	tagGeometry = "GEOMETRY"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is a SQLite-backed document store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docsuite/data/docsuite.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsuite", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docsuite.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_catalog.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// Get returns the document stored under key.
func (s *Store) Get(ctx context.Context, table, key string) (map[string]any, error) {
	if _, err := s.primaryKey(ctx, s.db, table); err != nil {
		return nil, err
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT doc FROM %s WHERE key = ?", quoteIdent(dataTable(table))), key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrNotFound, key, table)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", table, key, err)
	}
	return decodeDoc(raw)
}

// Put writes docs in one transaction.
func (s *Store) Put(ctx context.Context, table string, docs []map[string]any, policy driven.ConflictPolicy) (driven.PutResult, error) {
	var res driven.PutResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	pk, err := s.primaryKey(ctx, tx, table)
	if err != nil {
		return res, err
	}
	name := quoteIdent(dataTable(table))

	for _, doc := range docs {
		encoded := encodeValue(doc).(map[string]any)
		var key string
		if v, ok := doc[pk]; ok && v != nil {
			key = fmt.Sprint(v)
		} else {
			key = uuid.NewString()
			encoded[escapeKey(pk)] = key
			res.GeneratedKeys = append(res.GeneratedKeys, key)
		}

		var exists int
		err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE key = ?", name), key,
		).Scan(&exists)
		if err != nil {
			return driven.PutResult{}, fmt.Errorf("checking %s/%s: %w", table, key, err)
		}
		if exists > 0 && policy == driven.ConflictError {
			return driven.PutResult{}, fmt.Errorf("%w: %s in %s", domain.ErrAlreadyExists, key, table)
		}

		data, err := json.Marshal(encoded)
		if err != nil {
			return driven.PutResult{}, fmt.Errorf("encoding %s/%s: %w", table, key, err)
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT OR REPLACE INTO %s (key, doc) VALUES (?, ?)", name), key, string(data),
		)
		if err != nil {
			return driven.PutResult{}, fmt.Errorf("writing %s/%s: %w", table, key, err)
		}

		if exists > 0 {
			res.Replaced++
		} else {
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return driven.PutResult{}, fmt.Errorf("committing: %w", err)
	}
	return res, nil
}

// Delete removes the documents with the given keys.
func (s *Store) Delete(ctx context.Context, table string, keys []string) (driven.DeleteResult, error) {
	var res driven.DeleteResult
	if _, err := s.primaryKey(ctx, s.db, table); err != nil {
		return res, err
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE key = ?", quoteIdent(dataTable(table)))
	for _, key := range keys {
		r, err := s.db.ExecContext(ctx, stmt, key)
		if err != nil {
			return res, fmt.Errorf("deleting %s/%s: %w", table, key, err)
		}
		n, _ := r.RowsAffected()
		res.Deleted += int(n)
	}
	return res, nil
}

// DeleteAll removes every document of a table.
func (s *Store) DeleteAll(ctx context.Context, table string) (driven.DeleteResult, error) {
	if _, err := s.primaryKey(ctx, s.db, table); err != nil {
		return driven.DeleteResult{}, err
	}
	r, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quoteIdent(dataTable(table))))
	if err != nil {
		return driven.DeleteResult{}, fmt.Errorf("clearing %s: %w", table, err)
	}
	n, _ := r.RowsAffected()
	return driven.DeleteResult{Deleted: int(n)}, nil
}

// Scan returns every document, ordered by key.
func (s *Store) Scan(ctx context.Context, table string) ([]map[string]any, error) {
	if _, err := s.primaryKey(ctx, s.db, table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT doc FROM %s ORDER BY key", quoteIdent(dataTable(table))))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", table, err)
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ==================== Tables and Indexes ====================

// CreateTable creates a document table and registers it in the catalog.
func (s *Store) CreateTable(ctx context.Context, name, primaryKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := s.primaryKey(ctx, tx, name)
	switch {
	case err == nil && existing == primaryKey:
		return fmt.Errorf("%w: table %s", domain.ErrAlreadyExists, name)
	case err == nil:
		return fmt.Errorf("%w: table %s is keyed by %s, not %s",
			domain.ErrConflictingDefinition, name, existing, primaryKey)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO docsuite_tables (name, primary_key) VALUES (?, ?)", name, primaryKey,
	); err != nil {
		return fmt.Errorf("registering table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE %s (key TEXT PRIMARY KEY, doc TEXT NOT NULL)", quoteIdent(dataTable(name)),
	)); err != nil {
		return fmt.Errorf("creating table %s: %w", name, err)
	}
	return tx.Commit()
}

// DropTable removes a document table and its indexes.
func (s *Store) DropTable(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.primaryKey(ctx, tx, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(dataTable(name)))); err != nil {
		return fmt.Errorf("dropping table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM docsuite_indexes WHERE table_name = ?", name); err != nil {
		return fmt.Errorf("unregistering indexes of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM docsuite_tables WHERE name = ?", name); err != nil {
		return fmt.Errorf("unregistering table %s: %w", name, err)
	}
	return tx.Commit()
}

// CreateIndex creates an expression index over a document property.
// Geo indexes are recorded in the catalog only.
func (s *Store) CreateIndex(ctx context.Context, table, property string, opts driven.IndexOptions) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.primaryKey(ctx, tx, table); err != nil {
		return err
	}

	var multi, geo bool
	err = tx.QueryRowContext(ctx,
		"SELECT multi, geo FROM docsuite_indexes WHERE table_name = ? AND property = ?", table, property,
	).Scan(&multi, &geo)
	switch {
	case err == nil && multi == opts.Multi && geo == opts.Geo:
		return fmt.Errorf("%w: index %s on %s", domain.ErrAlreadyExists, property, table)
	case err == nil:
		return fmt.Errorf("%w: index %s on %s", domain.ErrConflictingDefinition, property, table)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("reading index %s on %s: %w", property, table, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO docsuite_indexes (table_name, property, multi, geo) VALUES (?, ?, ?, ?)",
		table, property, opts.Multi, opts.Geo,
	); err != nil {
		return fmt.Errorf("registering index %s on %s: %w", property, table, err)
	}
	if !opts.Geo {
		path := `$."` + strings.ReplaceAll(escapeKey(property), `"`, `\"`) + `"`
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"CREATE INDEX %s ON %s (json_extract(doc, %s))",
			quoteIdent("idx_"+table+"__"+property),
			quoteIdent(dataTable(table)),
			quoteLiteral(path),
		)); err != nil {
			return fmt.Errorf("creating index %s on %s: %w", property, table, err)
		}
	}
	return tx.Commit()
}

// Tables returns the catalogued table names in sorted order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM docsuite_tables ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) primaryKey(ctx context.Context, q querier, table string) (string, error) {
	var pk string
	err := q.QueryRowContext(ctx, "SELECT primary_key FROM docsuite_tables WHERE name = ?", table).Scan(&pk)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: table %s", domain.ErrNotFound, table)
	}
	if err != nil {
		return "", fmt.Errorf("reading catalog for %s: %w", table, err)
	}
	return pk, nil
}

func dataTable(name string) string {
	return "doc_" + name
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ==================== Encoding ====================

// escapeKey prefixes document keys starting with "$" with another "$", so
// that only tagged values hold a bare "$type" key.
func escapeKey(k string) string {
	if strings.HasPrefix(k, "$") {
		return "$" + k
	}
	return k
}

func unescapeKey(k string) string {
	if strings.HasPrefix(k, "$$") {
		return k[1:]
	}
	return k
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[escapeKey(k)] = encodeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = encodeValue(e)
		}
		return out
	case domain.StoredTime:
		return map[string]any{
			typeTag:    tagTime,
			"instant":  t.Instant.UTC().Format(time.RFC3339Nano),
			"timezone": t.Timezone,
		}
	case domain.StoredGeometry:
		return map[string]any{
			typeTag: tagGeometry,
			"type":  t.Type,
			"wkb":   base64.StdEncoding.EncodeToString(t.WKB),
		}
	default:
		return v
	}
}

func decodeDoc(raw string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	out, err := decodeValue(doc)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func decodeValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		switch t[typeTag] {
		case tagTime:
			s, _ := t["instant"].(string)
			instant, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("decoding stored time: %w", err)
			}
			tz, _ := t["timezone"].(string)
			return domain.StoredTime{Instant: instant.UTC(), Timezone: tz}, nil
		case tagGeometry:
			s, _ := t["wkb"].(string)
			data, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("decoding stored geometry: %w", err)
			}
			typ, _ := t["type"].(string)
			return domain.StoredGeometry{Type: typ, WKB: data}, nil
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			out[unescapeKey(k)] = d
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	default:
		return v, nil
	}
}
