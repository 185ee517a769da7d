package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// destinationFor resolves the default collection a restored item is written
// into. Every value of model.ArchiveTypes must have a case here; the
// exhaustiveness test fails when a new type is added without one.
func destinationFor(t model.ArchiveType) (string, bool) {
	switch t {
	case model.ArchiveTypeTicket:
		return store.Tickets, true
	case model.ArchiveTypeWorkday:
		return store.Workdays, true
	case model.ArchiveTypeImage:
		return store.TicketImages, true
	}
	return "", false
}

// Restore reconstructs an archived item as a new document in the destination
// collection and consumes the catalog entry. The new document gets a freshly
// generated id; the original identity survives only in its originalId field.
// An entry is restorable at most once: re-restoring is a Validation error and
// a concurrent double restore loses the conditional write.
func (s *ArchiveServiceImpl) Restore(ctx context.Context, entryID, destination string) (model.RestoreResult, error) {
	const op = "restore archived item"

	doc, err := s.store.Get(ctx, store.ArchiveIndex, entryID)
	if err != nil {
		return model.RestoreResult{}, wrap(op, err)
	}
	entry := convert.ArchiveEntryFromDoc(doc)

	if entry.Status == model.ArchiveEntryRestored {
		return model.RestoreResult{}, fmt.Errorf("archive entry %s: %w", entryID, errs.ErrAlreadyRestored)
	}
	dest := destination
	if dest == "" {
		d, ok := destinationFor(entry.Type)
		if !ok {
			return model.RestoreResult{}, fmt.Errorf("%w: no destination for archive type %q", errs.ErrValidation, entry.Type)
		}
		dest = d
	}

	now := time.Now().UTC()
	restored := make(store.Doc, len(entry.Metadata)+3)
	for k, v := range entry.Metadata {
		restored[k] = v
	}
	restored["restoredAt"] = now
	restored["restoredFrom"] = entry.ID
	restored["originalId"] = entry.OriginalID

	newID, err := s.store.Insert(ctx, dest, restored)
	if err != nil {
		return model.RestoreResult{}, wrap(op, err)
	}

	err = s.store.UpdateWhere(ctx, store.ArchiveIndex, entry.ID,
		[]store.Cond{{Field: "status", Value: string(model.ArchiveEntryArchived)}},
		store.Doc{
			"status":     string(model.ArchiveEntryRestored),
			"restoredAt": now,
			"restoredId": newID,
		},
	)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			// Lost the race to another restorer; take back the document we
			// just created.
			if delErr := s.store.Delete(ctx, dest, newID); delErr != nil {
				s.log.Warn("orphaned restore document",
					zap.String("collection", dest),
					zap.String("id", newID),
					zap.Error(delErr),
				)
			}
			return model.RestoreResult{}, fmt.Errorf("archive entry %s: %w", entryID, errs.ErrAlreadyRestored)
		}
		return model.RestoreResult{}, wrap(op, err)
	}

	return model.RestoreResult{
		Success:    true,
		OriginalID: entry.OriginalID,
		NewID:      newID,
		Type:       entry.Type,
	}, nil
}
