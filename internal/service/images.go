package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// ArchiveTicketImages archives the given subset of a ticket's images.
// Every id must belong to the ticket and not be archived yet, checked as a
// whole before any write; after that, per-image
// attempts are independent and failures are reported in FailedIDs rather than
// aborting the batch. The ticket's image flags and status are updated only
// after all attempts have finished.
func (s *ArchiveServiceImpl) ArchiveTicketImages(
	ctx context.Context, ticketID string, imageIDs []string, retentionDays int,
) (model.ArchiveImagesResult, error) {
	const op = "archive ticket images"

	res := model.ArchiveImagesResult{TicketID: ticketID}
	if len(imageIDs) == 0 {
		return res, fmt.Errorf("%w: no image ids", errs.ErrValidation)
	}
	if retentionDays <= 0 {
		retentionDays = model.DefaultRetentionDays
	}

	doc, err := s.store.Get(ctx, store.Tickets, ticketID)
	if err != nil {
		return res, wrap(op, err)
	}
	ticket := convert.TicketFromDoc(doc)

	byID := make(map[string]int, len(ticket.Images))
	for i := range ticket.Images {
		byID[ticket.Images[i].ID] = i
	}
	var unknown []string
	for _, id := range imageIDs {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return res, fmt.Errorf("%w: images not on ticket %s: %s",
			errs.ErrValidation, ticketID, strings.Join(unknown, ", "))
	}
	// Re-archiving a flagged image would mint a second detail record and a
	// second live catalog entry, each independently restorable.
	var already []string
	for _, id := range imageIDs {
		if ticket.Images[byID[id]].Archived {
			already = append(already, id)
		}
	}
	if len(already) > 0 {
		return res, fmt.Errorf("%w: images already archived on ticket %s: %s",
			errs.ErrValidation, ticketID, strings.Join(already, ", "))
	}

	now := time.Now().UTC()
	attempts := make([]error, len(imageIDs))
	var g errgroup.Group
	g.SetLimit(s.maxParallel)
	for i, id := range imageIDs {
		i := i
		img := ticket.Images[byID[id]]
		g.Go(func() error {
			attempts[i] = s.archiveOneImage(ctx, ticket, img, retentionDays, now)
			return nil
		})
	}
	_ = g.Wait() // failures land in attempts, never in the group

	var archived []string
	for i, attemptErr := range attempts {
		if attemptErr != nil {
			s.log.Warn("image archival failed",
				zap.String("ticketId", ticketID),
				zap.String("imageId", imageIDs[i]),
				zap.Error(attemptErr),
			)
			res.FailedIDs = append(res.FailedIDs, imageIDs[i])
			continue
		}
		archived = append(archived, imageIDs[i])
	}

	if len(archived) > 0 {
		for _, id := range archived {
			img := &ticket.Images[byID[id]]
			img.Archived = true
			img.ArchivedAt = now
		}
		ticket.ArchivedImages = append(ticket.ArchivedImages, archived...)
		fields := store.Doc{
			"images":         convert.TicketImagesToDocs(ticket.Images),
			"archivedImages": ticket.ArchivedImages,
		}
		// Partial archival leaves the overall status untouched.
		if ticket.AllImagesArchived() && ticket.ArchiveStatus == model.TicketActive {
			ticket.ArchiveStatus = model.TicketImagesArchived
			fields["archiveStatus"] = string(model.TicketImagesArchived)
		}
		if err := s.store.Update(ctx, store.Tickets, ticketID, fields); err != nil {
			return res, wrap(op, err)
		}
	}

	res.ArchivedCount = len(archived)
	res.Success = len(archived) > 0
	return res, nil
}

// archiveOneImage writes the detail record and its catalog summary for one image.
func (s *ArchiveServiceImpl) archiveOneImage(
	ctx context.Context, ticket model.Ticket, img model.TicketImage, retentionDays int, now time.Time,
) error {
	expires := now.AddDate(0, 0, retentionDays)
	rec := model.ArchiveImageRecord{
		OriginalID:    img.ID,
		TicketID:      ticket.ID,
		Path:          img.Path,
		Size:          img.Size,
		ContentType:   img.ContentType,
		RetentionDays: retentionDays,
		ExpiresAt:     expires,
		ArchivedAt:    now,
	}
	recID, err := s.store.Insert(ctx, store.ArchiveImages, convert.ImageRecordToDoc(rec))
	if err != nil {
		return fmt.Errorf("image record %s: %w", img.ID, err)
	}

	entry := model.ArchiveEntry{
		Type:          model.ArchiveTypeImage,
		OriginalID:    img.ID,
		Title:         imageTitle(img),
		Date:          ticket.Date,
		ArchivedAt:    now,
		Status:        model.ArchiveEntryArchived,
		RetentionDays: retentionDays,
		ExpiresAt:     expires,
		Metadata: map[string]any{
			"ticketId":        ticket.ID,
			"path":            img.Path,
			"size":            img.Size,
			"contentType":     img.ContentType,
			"archiveRecordId": recID,
		},
	}
	if _, err := s.store.Insert(ctx, store.ArchiveIndex, convert.ArchiveEntryToDoc(entry)); err != nil {
		return fmt.Errorf("index entry for image %s: %w", img.ID, err)
	}
	return nil
}

func imageTitle(img model.TicketImage) string {
	if img.Path != "" {
		return filepath.Base(img.Path)
	}
	return "Image " + img.ID
}
