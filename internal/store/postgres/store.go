package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/store"
)

// Store implements store.Store on PostgreSQL. Every collection lives in the
// documents table keyed by (collection, id) with the body in a jsonb column.
type Store struct{ db *DB }

// NewStore constructs a document store over the given pool.
func NewStore(db *DB) *Store { return &Store{db: db} }

var _ store.Store = (*Store)(nil)

// Get returns one document by id.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Doc, error) {
	const q = `SELECT data FROM documents WHERE collection=$1 AND id=$2`
	var raw []byte
	if err := s.db.Pool.QueryRow(ctx, q, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return decode(raw, id)
}

// Insert stores a new document under a generated id.
func (s *Store) Insert(ctx context.Context, collection string, doc store.Doc) (string, error) {
	id := uuid.Must(uuid.NewV4()).String()
	cp := make(store.Doc, len(doc)+1)
	for k, v := range doc {
		cp[k] = v
	}
	cp["id"] = id
	raw, err := json.Marshal(cp)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	const q = `INSERT INTO documents (collection, id, data) VALUES ($1,$2,$3)`
	if _, err := s.db.Pool.Exec(ctx, q, collection, id, raw); err != nil {
		return "", err
	}
	return id, nil
}

// Update merges top-level fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields store.Doc) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	const q = `UPDATE documents SET data = data || $3::jsonb WHERE collection=$1 AND id=$2`
	tag, err := s.db.Pool.Exec(ctx, q, collection, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdateWhere merges fields only when every expectation currently holds.
func (s *Store) UpdateWhere(ctx context.Context, collection, id string, expect []store.Cond, fields store.Doc) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	sql := `UPDATE documents SET data = data || $3::jsonb WHERE collection=$1 AND id=$2`
	args := []any{collection, id, raw}
	for _, c := range expect {
		path, err := jsonPath(c.Field)
		if err != nil {
			return err
		}
		args = append(args, condText(c.Value))
		sql += fmt.Sprintf(` AND data #>> '%s' = $%d`, path, len(args))
	}
	tag, err := s.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	// Distinguish a failed expectation from a missing document.
	const probe = `SELECT 1 FROM documents WHERE collection=$1 AND id=$2`
	var one int
	if err := s.db.Pool.QueryRow(ctx, probe, collection, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	return errs.ErrConflict
}

// Delete removes one document by id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection=$1 AND id=$2`
	tag, err := s.db.Pool.Exec(ctx, q, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Find returns matching documents honoring order and pagination.
func (s *Store) Find(ctx context.Context, collection string, q store.Query) ([]store.Doc, error) {
	sql, args, err := buildWhere(`SELECT data FROM documents`, collection, q)
	if err != nil {
		return nil, err
	}
	if q.OrderDescBy != "" {
		path, err := jsonPath(q.OrderDescBy)
		if err != nil {
			return nil, err
		}
		sql += fmt.Sprintf(` ORDER BY (data #>> '%s')::timestamptz DESC`, path)
	}
	if q.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT %d`, q.Limit)
	}
	if q.Offset > 0 {
		sql += fmt.Sprintf(` OFFSET %d`, q.Offset)
	}
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Doc
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decode(raw, "")
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Count returns the number of matching documents, ignoring pagination.
func (s *Store) Count(ctx context.Context, collection string, q store.Query) (int64, error) {
	sql, args, err := buildWhere(`SELECT COUNT(*) FROM documents`, collection, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.Pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func buildWhere(sel, collection string, q store.Query) (string, []any, error) {
	sql := sel + ` WHERE collection=$1`
	args := []any{collection}
	for _, c := range q.Conds {
		path, err := jsonPath(c.Field)
		if err != nil {
			return "", nil, err
		}
		args = append(args, condText(c.Value))
		sql += fmt.Sprintf(` AND data #>> '%s' = $%d`, path, len(args))
	}
	if q.DateField != "" {
		path, err := jsonPath(q.DateField)
		if err != nil {
			return "", nil, err
		}
		if !q.From.IsZero() {
			args = append(args, q.From)
			sql += fmt.Sprintf(` AND (data #>> '%s')::timestamptz >= $%d`, path, len(args))
		}
		if !q.To.IsZero() {
			args = append(args, q.To)
			sql += fmt.Sprintf(` AND (data #>> '%s')::timestamptz <= $%d`, path, len(args))
		}
	}
	return sql, args, nil
}

// jsonPath renders a dot-addressed field as a jsonb path literal. Field names
// come from code constants, never from request input; the character check
// guards against accidents, not attackers.
func jsonPath(field string) (string, error) {
	for _, r := range field {
		ok := r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return "", fmt.Errorf("invalid field path %q", field)
		}
	}
	return "{" + strings.ReplaceAll(field, ".", ",") + "}", nil
}

// condText renders a condition value the way jsonb #>> renders the stored one.
func condText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}

func decode(raw []byte, id string) (store.Doc, error) {
	var doc store.Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if id != "" {
		doc["id"] = id
	}
	return doc, nil
}
