package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

func seedWorkday(t *testing.T, st store.Store) string {
	t.Helper()
	id, err := st.Insert(context.Background(), store.Workdays, store.Doc{
		"employeeName": "J. Moreno",
		"date":         time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		"jobsite":      "Riverside Plaza",
		"hours":        9.5,
	})
	if err != nil {
		t.Fatalf("seed workday: %v", err)
	}
	return id
}

func TestArchiveWorkday_NotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)

	_, err := svc.ArchiveWorkday(context.Background(), "missing", 0)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want not-found, got %v", err)
	}
}

func TestArchiveWorkday_MovesIntoCatalog(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()
	workdayID := seedWorkday(t, st)

	entry, err := svc.ArchiveWorkday(ctx, workdayID, 90)
	if err != nil {
		t.Fatalf("archive workday: %v", err)
	}
	if entry.Type != model.ArchiveTypeWorkday || entry.OriginalID != workdayID {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Title != "Workday J. Moreno 2026-05-04" {
		t.Fatalf("title: got %q", entry.Title)
	}
	if want := entry.ArchivedAt.AddDate(0, 0, 90); !entry.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt: want %v, got %v", want, entry.ExpiresAt)
	}

	// Archive is a move: the source document is gone.
	if _, err := st.Get(ctx, store.Workdays, workdayID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("source workday must be removed, got %v", err)
	}
}

func TestArchiveWorkday_RestoreRoundTrip(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)
	ctx := context.Background()
	workdayID := seedWorkday(t, st)

	entry, err := svc.ArchiveWorkday(ctx, workdayID, 0)
	if err != nil {
		t.Fatalf("archive workday: %v", err)
	}
	res, err := svc.Restore(ctx, entry.ID, "")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.OriginalID != workdayID || res.NewID == workdayID {
		t.Fatalf("identity handling wrong: %+v", res)
	}

	doc, err := st.Get(ctx, store.Workdays, res.NewID)
	if err != nil {
		t.Fatalf("restored workday: %v", err)
	}
	if doc["employeeName"] != "J. Moreno" {
		t.Fatalf("workday content must survive the round trip, got %v", doc["employeeName"])
	}
	if doc["originalId"] != workdayID {
		t.Fatalf("originalId: want %s, got %v", workdayID, doc["originalId"])
	}
}
