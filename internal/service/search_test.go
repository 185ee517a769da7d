package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
	"github.com/msavelyev/haulbase/internal/store/memstore"
)

func seedEntry(t *testing.T, st store.Store, e model.ArchiveEntry) string {
	t.Helper()
	id, err := st.Insert(context.Background(), store.ArchiveIndex, convert.ArchiveEntryToDoc(e))
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return id
}

func TestSearch_Pagination(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedEntry(t, st, model.ArchiveEntry{
			Type:       model.ArchiveTypeTicket,
			OriginalID: fmt.Sprintf("t-%02d", i),
			Title:      fmt.Sprintf("Ticket %02d", i),
			Date:       base.AddDate(0, 0, i),
			ArchivedAt: base.Add(time.Duration(i) * time.Hour),
			Status:     model.ArchiveEntryArchived,
		})
	}
	for i := 0; i < 5; i++ {
		seedEntry(t, st, model.ArchiveEntry{
			Type:       model.ArchiveTypeWorkday,
			OriginalID: fmt.Sprintf("w-%d", i),
			Date:       base,
			ArchivedAt: base,
			Status:     model.ArchiveEntryArchived,
		})
	}

	res, err := svc.Search(ctx, model.SearchParams{Type: "tickets"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("items: want 10, got %d", len(res.Items))
	}
	if res.Total != 25 {
		t.Fatalf("total: want 25, got %d", res.Total)
	}
	if !res.HasMore {
		t.Fatalf("hasMore: want true")
	}

	// Ordered by archivedAt descending: first page starts at the newest.
	if res.Items[0].OriginalID != "t-24" {
		t.Fatalf("first item: want t-24, got %s", res.Items[0].OriginalID)
	}

	last, err := svc.Search(ctx, model.SearchParams{Type: "tickets", Offset: 20})
	if err != nil {
		t.Fatalf("search last page: %v", err)
	}
	if len(last.Items) != 5 || last.HasMore {
		t.Fatalf("last page: want 5 items and no more, got %d hasMore=%v", len(last.Items), last.HasMore)
	}
}

func TestSearch_DateWindowUsesBusinessDate(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	archived := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedEntry(t, st, model.ArchiveEntry{
		Type: model.ArchiveTypeTicket, OriginalID: "in-window",
		Date: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), ArchivedAt: archived,
		Status: model.ArchiveEntryArchived,
	})
	seedEntry(t, st, model.ArchiveEntry{
		Type: model.ArchiveTypeTicket, OriginalID: "out-of-window",
		Date: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), ArchivedAt: archived,
		Status: model.ArchiveEntryArchived,
	})

	res, err := svc.Search(ctx, model.SearchParams{
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].OriginalID != "in-window" {
		t.Fatalf("want only in-window entry, got %+v", res.Items)
	}
}

func TestSearch_MetadataFilter(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	seedEntry(t, st, model.ArchiveEntry{
		Type: model.ArchiveTypeImage, OriginalID: "img-1", Date: now, ArchivedAt: now,
		Status:   model.ArchiveEntryArchived,
		Metadata: map[string]any{"ticketId": "t-1", "contentType": "image/jpeg"},
	})
	seedEntry(t, st, model.ArchiveEntry{
		Type: model.ArchiveTypeImage, OriginalID: "img-2", Date: now, ArchivedAt: now,
		Status:   model.ArchiveEntryArchived,
		Metadata: map[string]any{"ticketId": "t-2", "contentType": "image/jpeg"},
	})

	res, err := svc.Search(ctx, model.SearchParams{
		Type:            "images",
		MetadataFilters: map[string]any{"ticketId": "t-1"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].OriginalID != "img-1" {
		t.Fatalf("want img-1 only, got %+v", res.Items)
	}
}

func TestSearch_NoMatchesIsNotAnError(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	res, err := svc.Search(context.Background(), model.SearchParams{Type: "workdays"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Items) != 0 || res.Total != 0 || res.HasMore {
		t.Fatalf("want empty result, got %+v", res)
	}
}

func TestSearch_UnknownType(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.Search(context.Background(), model.SearchParams{Type: "trucks"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestSearch_StoreFailureIsUnavailable(t *testing.T) {
	t.Parallel()
	st := &faultyStore{Store: memstore.New(), findErr: errors.New("connection reset")}
	svc := NewArchiveService(st, nil, 4)

	_, err := svc.Search(context.Background(), model.SearchParams{})
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Fatalf("want unavailable error, got %v", err)
	}
}
