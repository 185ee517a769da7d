package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// Sweep reconciles tickets whose image flags lag behind the archive catalog.
// Image archival and the ticket update are separate writes, so a crash
// between them leaves images archived on the index while the ticket still
// shows them active; the sweep repairs exactly that. Idempotent.
func (s *ArchiveServiceImpl) Sweep(ctx context.Context) (model.SweepReport, error) {
	const op = "reconcile archived images"

	entries, err := s.store.Find(ctx, store.ArchiveIndex, store.Query{
		Conds: []store.Cond{
			{Field: "type", Value: string(model.ArchiveTypeImage)},
			{Field: "status", Value: string(model.ArchiveEntryArchived)},
		},
	})
	if err != nil {
		return model.SweepReport{}, wrap(op, err)
	}

	report := model.SweepReport{Checked: len(entries)}
	byTicket := map[string][]string{}
	for _, doc := range entries {
		entry := convert.ArchiveEntryFromDoc(doc)
		ticketID := convert.Str(entry.Metadata["ticketId"])
		if ticketID == "" || entry.OriginalID == "" {
			continue
		}
		byTicket[ticketID] = append(byTicket[ticketID], entry.OriginalID)
	}

	for ticketID, imageIDs := range byTicket {
		repaired, err := s.reconcileTicket(ctx, ticketID, imageIDs)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			// Ticket deleted or restored under a new identity since archival.
			s.log.Debug("sweep skipping missing ticket", zap.String("ticketId", ticketID))
		case err != nil:
			report.Failed += len(imageIDs)
			s.log.Warn("sweep repair failed", zap.String("ticketId", ticketID), zap.Error(err))
		default:
			report.Repaired += repaired
		}
	}
	return report, nil
}

// reconcileTicket flags the given images as archived on their ticket,
// retrying transient store failures with backoff.
func (s *ArchiveServiceImpl) reconcileTicket(ctx context.Context, ticketID string, imageIDs []string) (int, error) {
	var repaired int
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		repaired = 0
		doc, err := s.store.Get(ctx, store.Tickets, ticketID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		ticket := convert.TicketFromDoc(doc)

		now := time.Now().UTC()
		archivedSet := map[string]bool{}
		for _, id := range ticket.ArchivedImages {
			archivedSet[id] = true
		}
		for _, id := range imageIDs {
			for i := range ticket.Images {
				img := &ticket.Images[i]
				if img.ID != id || img.Archived {
					continue
				}
				img.Archived = true
				img.ArchivedAt = now
				if !archivedSet[id] {
					ticket.ArchivedImages = append(ticket.ArchivedImages, id)
					archivedSet[id] = true
				}
				repaired++
			}
		}
		if repaired == 0 {
			return nil
		}

		fields := store.Doc{
			"images":         convert.TicketImagesToDocs(ticket.Images),
			"archivedImages": ticket.ArchivedImages,
		}
		if ticket.AllImagesArchived() && ticket.ArchiveStatus == model.TicketActive {
			fields["archiveStatus"] = string(model.TicketImagesArchived)
		}
		if err := s.store.Update(ctx, store.Tickets, ticketID, fields); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	return repaired, err
}
