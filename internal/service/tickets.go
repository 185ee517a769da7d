package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// FullyArchiveTicket moves a ticket to fully_archived and records which
// export artifact it was handed to. The transition is reachable from both
// active and images_archived; full archival supersedes partial image
// archival. The export itself is owned by a separate process, only the
// artifact name and row are recorded here.
func (s *ArchiveServiceImpl) FullyArchiveTicket(ctx context.Context, ticketID string) (model.Ticket, error) {
	const op = "fully archive ticket"

	doc, err := s.store.Get(ctx, store.Tickets, ticketID)
	if err != nil {
		return model.Ticket{}, wrap(op, err)
	}
	ticket := convert.TicketFromDoc(doc)

	now := time.Now().UTC()
	file := exportFileName(ticket.Jobsite, now)
	count, err := s.store.Count(ctx, store.ArchiveIndex, store.Query{
		Conds: []store.Cond{
			{Field: "type", Value: string(model.ArchiveTypeTicket)},
			{Field: "metadata.archiveFile", Value: file},
		},
	})
	if err != nil {
		return model.Ticket{}, wrap(op, err)
	}
	// Row 1 of the export artifact is the header row.
	row := int(count) + 2

	ticket.ArchiveStatus = model.TicketFullyArchived
	ticket.ArchiveDate = now
	ticket.ArchiveFile = file
	ticket.ArchiveRow = row
	if err := s.store.Update(ctx, store.Tickets, ticketID, store.Doc{
		"archiveStatus": string(model.TicketFullyArchived),
		"archiveDate":   now,
		"archiveFile":   file,
		"archiveRow":    row,
	}); err != nil {
		return model.Ticket{}, wrap(op, err)
	}

	entry := model.ArchiveEntry{
		Type:          model.ArchiveTypeTicket,
		OriginalID:    ticket.ID,
		Title:         ticketTitle(ticket),
		Date:          ticket.Date,
		ArchivedAt:    now,
		Status:        model.ArchiveEntryArchived,
		RetentionDays: model.DefaultRetentionDays,
		ExpiresAt:     now.AddDate(0, 0, model.DefaultRetentionDays),
		Metadata:      convert.TicketToDoc(ticket),
	}
	if _, err := s.store.Insert(ctx, store.ArchiveIndex, convert.ArchiveEntryToDoc(entry)); err != nil {
		return model.Ticket{}, wrap(op, err)
	}
	return ticket, nil
}

func ticketTitle(t model.Ticket) string {
	if t.Number != "" {
		return "Ticket " + t.Number
	}
	return "Ticket " + t.ID
}

// exportFileName names the spreadsheet a fully archived ticket is handed to,
// one artifact per jobsite and month.
func exportFileName(jobsite string, now time.Time) string {
	site := strings.ReplaceAll(strings.TrimSpace(jobsite), " ", "_")
	if site == "" {
		site = "unknown"
	}
	return fmt.Sprintf("archive_%s_%s.xlsx", site, now.Format("2006-01"))
}
