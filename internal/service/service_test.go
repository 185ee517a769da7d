package service

import (
	"context"
	"testing"
	"time"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
	"github.com/msavelyev/haulbase/internal/store/memstore"
)

func newTestService(t *testing.T) (*ArchiveServiceImpl, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return NewArchiveService(st, nil, 4), st
}

// seedTicket inserts a ticket and returns it with the store-assigned id.
func seedTicket(t *testing.T, st store.Store, ticket model.Ticket) model.Ticket {
	t.Helper()
	id, err := st.Insert(context.Background(), store.Tickets, convert.TicketToDoc(ticket))
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	ticket.ID = id
	return ticket
}

func getTicket(t *testing.T, st store.Store, id string) model.Ticket {
	t.Helper()
	doc, err := st.Get(context.Background(), store.Tickets, id)
	if err != nil {
		t.Fatalf("get ticket %s: %v", id, err)
	}
	return convert.TicketFromDoc(doc)
}

func twoImageTicket() model.Ticket {
	return model.Ticket{
		Number:  "T-1042",
		Jobsite: "Riverside Plaza",
		Date:    time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Images: []model.TicketImage{
			{ID: "img-a", Path: "tickets/t-1042/a.jpg", Size: 48213, ContentType: "image/jpeg"},
			{ID: "img-b", Path: "tickets/t-1042/b.jpg", Size: 51077, ContentType: "image/jpeg"},
		},
	}
}

// findEntries returns catalog entries matching the given conditions.
func findEntries(t *testing.T, st store.Store, conds ...store.Cond) []model.ArchiveEntry {
	t.Helper()
	docs, err := st.Find(context.Background(), store.ArchiveIndex, store.Query{Conds: conds})
	if err != nil {
		t.Fatalf("find entries: %v", err)
	}
	out := make([]model.ArchiveEntry, 0, len(docs))
	for _, doc := range docs {
		out = append(out, convert.ArchiveEntryFromDoc(doc))
	}
	return out
}

// faultyStore wraps a real store and fails selected calls, simulating
// store outages.
type faultyStore struct {
	store.Store
	findErr   error
	countErr  error
	updateErr error
}

func (f *faultyStore) Find(ctx context.Context, collection string, q store.Query) ([]store.Doc, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.Store.Find(ctx, collection, q)
}

func (f *faultyStore) Count(ctx context.Context, collection string, q store.Query) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Store.Count(ctx, collection, q)
}

func (f *faultyStore) Update(ctx context.Context, collection, id string, fields store.Doc) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Store.Update(ctx, collection, id, fields)
}
