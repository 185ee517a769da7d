// Package memstore is an in-memory store.Store used by tests and the
// sweeper's dev mode. Documents are deep-copied on every boundary so callers
// never share state with the store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/store"
)

// Store keeps all collections behind a single mutex.
type Store struct {
	mu   sync.RWMutex
	cols map[string]map[string]store.Doc

	// FailOn, when set, vets every Insert; a non-nil return fails that
	// insert with the given error. Tests use it to simulate per-item faults.
	FailOn func(collection string, doc store.Doc) error
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{cols: map[string]map[string]store.Doc{}}
}

func (s *Store) col(name string) map[string]store.Doc {
	c, ok := s.cols[name]
	if !ok {
		c = map[string]store.Doc{}
		s.cols[name] = c
	}
	return c
}

// Get returns one document by id.
func (s *Store) Get(_ context.Context, collection, id string) (store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.cols[collection][id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return deepCopy(doc), nil
}

// Insert stores a new document under a generated id.
func (s *Store) Insert(_ context.Context, collection string, doc store.Doc) (string, error) {
	if s.FailOn != nil {
		if err := s.FailOn(collection, doc); err != nil {
			return "", err
		}
	}
	id := uuid.Must(uuid.NewV4()).String()
	cp := deepCopy(doc)
	cp["id"] = id
	s.mu.Lock()
	s.col(collection)[id] = cp
	s.mu.Unlock()
	return id, nil
}

// Update merges top-level fields into an existing document.
func (s *Store) Update(_ context.Context, collection, id string, fields store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.cols[collection][id]
	if !ok {
		return errs.ErrNotFound
	}
	for k, v := range deepCopy(fields) {
		doc[k] = v
	}
	return nil
}

// UpdateWhere merges fields only when every expectation holds.
func (s *Store) UpdateWhere(_ context.Context, collection, id string, expect []store.Cond, fields store.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.cols[collection][id]
	if !ok {
		return errs.ErrNotFound
	}
	for _, c := range expect {
		got, ok := store.Lookup(doc, c.Field)
		if !ok || !looseEqual(got, c.Value) {
			return errs.ErrConflict
		}
	}
	for k, v := range deepCopy(fields) {
		doc[k] = v
	}
	return nil
}

// Delete removes one document by id.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cols[collection][id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.cols[collection], id)
	return nil
}

// Find returns matching documents honoring order and pagination.
func (s *Store) Find(_ context.Context, collection string, q store.Query) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Doc
	for _, doc := range s.cols[collection] {
		if matches(doc, q) {
			out = append(out, deepCopy(doc))
		}
	}
	if q.OrderDescBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			ti, _ := fieldTime(out[i], q.OrderDescBy)
			tj, _ := fieldTime(out[j], q.OrderDescBy)
			return ti.After(tj)
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Count returns the number of matching documents, ignoring pagination.
func (s *Store) Count(_ context.Context, collection string, q store.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.cols[collection] {
		if matches(doc, q) {
			n++
		}
	}
	return n, nil
}

func matches(doc store.Doc, q store.Query) bool {
	for _, c := range q.Conds {
		got, ok := store.Lookup(doc, c.Field)
		if !ok || !looseEqual(got, c.Value) {
			return false
		}
	}
	if q.DateField != "" && (!q.From.IsZero() || !q.To.IsZero()) {
		ts, ok := fieldTime(doc, q.DateField)
		if !ok {
			return false
		}
		if !q.From.IsZero() && ts.Before(q.From) {
			return false
		}
		if !q.To.IsZero() && ts.After(q.To) {
			return false
		}
	}
	return true
}

func fieldTime(doc store.Doc, field string) (time.Time, bool) {
	v, ok := store.Lookup(doc, field)
	if !ok {
		return time.Time{}, false
	}
	return store.AsTime(v)
}

// looseEqual tolerates the renderings a JSON round-trip produces: numeric
// widths collapse to float64 and timestamps to RFC 3339 strings.
func looseEqual(a, b any) bool {
	if ta, ok := store.AsTime(a); ok {
		if tb, ok := store.AsTime(b); ok {
			return ta.Equal(tb)
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func deepCopy(doc store.Doc) store.Doc {
	return copyValue(doc).(store.Doc)
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = copyValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = copyValue(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
