package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

const defaultSearchLimit = 10

// Search queries the archive catalog. Results are ordered by archival time
// descending; Total counts the filtered set before pagination.
func (s *ArchiveServiceImpl) Search(ctx context.Context, params model.SearchParams) (model.SearchResult, error) {
	const op = "search archive"

	typ, err := normalizeType(params.Type)
	if err != nil {
		return model.SearchResult{}, err
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	q := store.Query{
		DateField:   "date", // the business date, not archivedAt
		From:        params.StartDate,
		To:          params.EndDate,
		OrderDescBy: "archivedAt",
		Limit:       limit,
		Offset:      offset,
	}
	if typ != "" {
		q.Conds = append(q.Conds, store.Cond{Field: "type", Value: typ})
	}
	for field, value := range params.MetadataFilters {
		q.Conds = append(q.Conds, store.Cond{Field: "metadata." + field, Value: value})
	}

	docs, err := s.store.Find(ctx, store.ArchiveIndex, q)
	if err != nil {
		return model.SearchResult{}, wrap(op, err)
	}
	total, err := s.store.Count(ctx, store.ArchiveIndex, q)
	if err != nil {
		return model.SearchResult{}, wrap(op, err)
	}

	items := make([]model.ArchiveEntry, 0, len(docs))
	for _, doc := range docs {
		items = append(items, convert.ArchiveEntryFromDoc(doc))
	}
	return model.SearchResult{
		Items:   items,
		Total:   total,
		HasMore: int64(offset+len(items)) < total,
	}, nil
}

// normalizeType folds the accepted type spellings onto the stored singular
// form. Empty and "all" disable the type filter.
func normalizeType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "all":
		return "", nil
	case "ticket", "tickets":
		return string(model.ArchiveTypeTicket), nil
	case "workday", "workdays":
		return string(model.ArchiveTypeWorkday), nil
	case "image", "images":
		return string(model.ArchiveTypeImage), nil
	default:
		return "", fmt.Errorf("%w: unknown archive type %q", errs.ErrValidation, t)
	}
}
