package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

type table struct {
	primaryKey string
	docs       map[string]map[string]any
	indexes    map[string]driven.IndexOptions
}

// Store is an in-memory implementation of driven.Store.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", domain.ErrNotFound, name)
	}
	return t, nil
}

// Get returns a copy of the document stored under key.
func (s *Store) Get(_ context.Context, name, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	doc, ok := t.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", domain.ErrNotFound, key, name)
	}
	return copyDoc(doc), nil
}

// Put writes docs. With driven.ConflictError no document is written if any
// key already exists.
func (s *Store) Put(_ context.Context, name string, docs []map[string]any, policy driven.ConflictPolicy) (driven.PutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res driven.PutResult
	t, err := s.table(name)
	if err != nil {
		return res, err
	}

	keys := make([]string, len(docs))
	copies := make([]map[string]any, len(docs))
	for i, doc := range docs {
		c := copyDoc(doc)
		if v, ok := c[t.primaryKey]; ok && v != nil {
			keys[i] = fmt.Sprint(v)
		} else {
			keys[i] = uuid.NewString()
			c[t.primaryKey] = keys[i]
			res.GeneratedKeys = append(res.GeneratedKeys, keys[i])
		}
		if _, exists := t.docs[keys[i]]; exists && policy == driven.ConflictError {
			return driven.PutResult{}, fmt.Errorf("%w: %s in %s", domain.ErrAlreadyExists, keys[i], name)
		}
		copies[i] = c
	}

	for i, c := range copies {
		if _, exists := t.docs[keys[i]]; exists {
			res.Replaced++
		} else {
			res.Inserted++
		}
		t.docs[keys[i]] = c
	}
	return res, nil
}

// Delete removes the documents with the given keys.
func (s *Store) Delete(_ context.Context, name string, keys []string) (driven.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(name)
	if err != nil {
		return driven.DeleteResult{}, err
	}
	var res driven.DeleteResult
	for _, k := range keys {
		if _, ok := t.docs[k]; ok {
			delete(t.docs, k)
			res.Deleted++
		}
	}
	return res, nil
}

// DeleteAll removes every document of a table.
func (s *Store) DeleteAll(_ context.Context, name string) (driven.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(name)
	if err != nil {
		return driven.DeleteResult{}, err
	}
	res := driven.DeleteResult{Deleted: len(t.docs)}
	t.docs = make(map[string]map[string]any)
	return res, nil
}

// Scan returns copies of every document, ordered by key.
func (s *Store) Scan(_ context.Context, name string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(name)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(t.docs))
	for k := range t.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, copyDoc(t.docs[k]))
	}
	return out, nil
}

// CreateTable creates an empty table.
func (s *Store) CreateTable(_ context.Context, name, primaryKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[name]; ok {
		if t.primaryKey == primaryKey {
			return fmt.Errorf("%w: table %s", domain.ErrAlreadyExists, name)
		}
		return fmt.Errorf("%w: table %s is keyed by %s, not %s",
			domain.ErrConflictingDefinition, name, t.primaryKey, primaryKey)
	}
	s.tables[name] = &table{
		primaryKey: primaryKey,
		docs:       make(map[string]map[string]any),
		indexes:    make(map[string]driven.IndexOptions),
	}
	return nil
}

// DropTable removes a table.
func (s *Store) DropTable(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.table(name); err != nil {
		return err
	}
	delete(s.tables, name)
	return nil
}

// CreateIndex records a secondary index. Lookups do not use it.
func (s *Store) CreateIndex(_ context.Context, name, property string, opts driven.IndexOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(name)
	if err != nil {
		return err
	}
	if existing, ok := t.indexes[property]; ok {
		if existing == opts {
			return fmt.Errorf("%w: index %s on %s", domain.ErrAlreadyExists, property, name)
		}
		return fmt.Errorf("%w: index %s on %s", domain.ErrConflictingDefinition, property, name)
	}
	t.indexes[property] = opts
	return nil
}

// Tables returns the table names in sorted order.
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Indexes returns the indexes of a table.
func (s *Store) Indexes(name string) map[string]driven.IndexOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	out := make(map[string]driven.IndexOptions, len(t.indexes))
	for k, v := range t.indexes {
		out[k] = v
	}
	return out
}

func copyDoc(doc map[string]any) map[string]any {
	return copyValue(doc).(map[string]any)
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case domain.StoredGeometry:
		return domain.StoredGeometry{Type: t.Type, WKB: append([]byte(nil), t.WKB...)}
	default:
		return v
	}
}
