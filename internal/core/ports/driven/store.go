package driven

import "context"

// ConflictPolicy decides what Put does when a key is already present.
type ConflictPolicy int

const (
	// ConflictError fails the write with domain.ErrAlreadyExists.
	ConflictError ConflictPolicy = iota

	// ConflictReplace overwrites the stored document.
	ConflictReplace
)

// String returns the policy name.
func (p ConflictPolicy) String() string {
	if p == ConflictReplace {
		return "replace"
	}
	return "error"
}

// PutResult summarises a Put call.
type PutResult struct {
	// Inserted counts documents whose key was new.
	Inserted int

	// Replaced counts documents that overwrote an existing key.
	Replaced int

	// GeneratedKeys holds, in input order, the keys the store assigned to
	// documents that arrived without a primary key.
	GeneratedKeys []string
}

// DeleteResult summarises a Delete call.
type DeleteResult struct {
	Deleted int
}

// IndexOptions describes a secondary index.
type IndexOptions struct {
	// Multi indexes each element of an array property.
	Multi bool

	// Geo builds a geospatial index over a geometry property.
	Geo bool
}

// Store is an opaque document store with single-document atomicity,
// unique-key lookup and secondary indexes.
//
// Raw documents are string-keyed maps of JSON-compatible values plus the
// store-native values domain.StoredTime and domain.StoredGeometry. Keys are
// the string form of the table's primary key property.
type Store interface {
	// Get returns the document stored under key, or domain.ErrNotFound.
	Get(ctx context.Context, table, key string) (map[string]any, error)

	// Put writes docs. A document without its primary key gets a generated one.
	Put(ctx context.Context, table string, docs []map[string]any, policy ConflictPolicy) (PutResult, error)

	// Delete removes the documents with the given keys. Missing keys are ignored.
	Delete(ctx context.Context, table string, keys []string) (DeleteResult, error)

	// DeleteAll removes every document in table.
	DeleteAll(ctx context.Context, table string) (DeleteResult, error)

	// Scan returns every document in table.
	Scan(ctx context.Context, table string) ([]map[string]any, error)

	// CreateTable creates a table keyed by primaryKey. It returns
	// domain.ErrAlreadyExists if an identical table exists and
	// domain.ErrConflictingDefinition if the existing table has another key.
	CreateTable(ctx context.Context, name, primaryKey string) error

	// DropTable removes a table and its indexes, or returns domain.ErrNotFound.
	DropTable(ctx context.Context, name string) error

	// CreateIndex creates a secondary index on property. The existing-index
	// errors mirror CreateTable.
	CreateIndex(ctx context.Context, table, property string, opts IndexOptions) error
}
