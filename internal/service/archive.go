// Package service implements the archive lifecycle engine: the catalog of
// archived items, batch image archival, the ticket archive-status
// progression, and restoration back into the domain collections.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/msavelyev/haulbase/internal/errs"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// ArchiveService defines the archive lifecycle operations.
type ArchiveService interface {
	// Search queries the archive catalog with filters and pagination.
	Search(ctx context.Context, params model.SearchParams) (model.SearchResult, error)
	// ArchiveTicketImages archives a subset of one ticket's images,
	// tolerating per-image failure.
	ArchiveTicketImages(ctx context.Context, ticketID string, imageIDs []string, retentionDays int) (model.ArchiveImagesResult, error)
	// FullyArchiveTicket moves a ticket to fully_archived and records its
	// export artifact location.
	FullyArchiveTicket(ctx context.Context, ticketID string) (model.Ticket, error)
	// ArchiveWorkday snapshots a workday into the catalog and removes the source.
	ArchiveWorkday(ctx context.Context, workdayID string, retentionDays int) (model.ArchiveEntry, error)
	// Restore reconstructs an archived item as a new document in its
	// destination collection and consumes the catalog entry.
	Restore(ctx context.Context, entryID, destination string) (model.RestoreResult, error)
	// Sweep reconciles ticket image flags that lag behind the catalog.
	Sweep(ctx context.Context) (model.SweepReport, error)
}

type ArchiveServiceImpl struct {
	store       store.Store
	log         *zap.Logger
	maxParallel int
}

var _ ArchiveService = (*ArchiveServiceImpl)(nil)

// NewArchiveService constructs the engine over an injected record store.
// A nil logger disables logging; maxParallel bounds per-batch image fan-out.
func NewArchiveService(st store.Store, logger *zap.Logger, maxParallel int) *ArchiveServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxParallel <= 0 {
		maxParallel = 8
	}
	return &ArchiveServiceImpl{store: st, log: logger, maxParallel: maxParallel}
}

// wrap applies the propagation policy: Not-Found and Validation pass through
// every layer unchanged, anything else is wrapped once as service-unavailable
// at the operation boundary.
func wrap(op string, err error) error {
	if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrValidation) {
		return err
	}
	return errs.Unavailable(op, err)
}
