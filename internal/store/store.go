// Package store defines the record-store adapter: a generic document-collection
// interface the archive engine is written against. Implementations own
// concurrency, durability and query execution.
package store

import (
	"context"
	"strings"
	"time"
)

// Collection names used by the archive engine.
const (
	ArchiveIndex  = "archiveIndex"
	ArchiveImages = "archiveImages"
	Tickets       = "tickets"
	TicketImages  = "ticketImages"
	Workdays      = "workdays"
)

// Doc is one schemaless document. The "id" field always mirrors the document id.
type Doc = map[string]any

// Cond is an exact-match predicate on a dot-addressed document field.
type Cond struct {
	Field string
	Value any
}

// Query filters, orders and paginates a collection read.
type Query struct {
	Conds []Cond

	// DateField enables a closed date window on the named field, which must
	// hold a timestamp. Zero From/To leave the corresponding bound open.
	DateField string
	From      time.Time
	To        time.Time

	// OrderDescBy orders results descending by the named field, which must
	// hold a timestamp. Empty leaves order implementation-defined.
	OrderDescBy string

	Limit  int // 0 means no limit
	Offset int
}

// Store is the document-store adapter. Implementations return
// errs.ErrNotFound for missing documents and errs.ErrConflict when a
// conditional write's expectation does not hold.
type Store interface {
	// Get returns one document by id.
	Get(ctx context.Context, collection, id string) (Doc, error)

	// Insert stores a new document under a freshly generated id and returns it.
	Insert(ctx context.Context, collection string, doc Doc) (string, error)

	// Update merges the given top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, fields Doc) error

	// UpdateWhere merges fields only when every expectation currently holds
	// on the document. This is the conditional-write primitive guarding
	// restore-at-most-once.
	UpdateWhere(ctx context.Context, collection, id string, expect []Cond, fields Doc) error

	// Delete removes one document by id.
	Delete(ctx context.Context, collection, id string) error

	// Find returns matching documents honoring order and pagination.
	Find(ctx context.Context, collection string, q Query) ([]Doc, error)

	// Count returns the number of matching documents, ignoring pagination.
	Count(ctx context.Context, collection string, q Query) (int64, error)
}

// Lookup resolves a dot-addressed path inside a document.
func Lookup(doc Doc, path string) (any, bool) {
	cur := any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// AsTime coerces a document field to a timestamp. JSON round-trips turn
// time.Time values into RFC 3339 strings, so both renderings are accepted.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
