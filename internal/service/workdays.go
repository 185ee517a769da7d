package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msavelyev/haulbase/internal/convert"
	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// ArchiveWorkday snapshots a workday document into the archive catalog and
// removes the source. Archival of workdays is a move: restoration mints a
// fresh id, so a surviving source document would duplicate the record after
// a round-trip.
func (s *ArchiveServiceImpl) ArchiveWorkday(ctx context.Context, workdayID string, retentionDays int) (model.ArchiveEntry, error) {
	const op = "archive workday"

	doc, err := s.store.Get(ctx, store.Workdays, workdayID)
	if err != nil {
		return model.ArchiveEntry{}, wrap(op, err)
	}
	if retentionDays <= 0 {
		retentionDays = model.DefaultRetentionDays
	}

	now := time.Now().UTC()
	entry := model.ArchiveEntry{
		Type:          model.ArchiveTypeWorkday,
		OriginalID:    workdayID,
		Title:         workdayTitle(doc),
		Date:          convert.Time(doc["date"]),
		ArchivedAt:    now,
		Status:        model.ArchiveEntryArchived,
		RetentionDays: retentionDays,
		ExpiresAt:     now.AddDate(0, 0, retentionDays),
		Metadata:      doc,
	}
	id, err := s.store.Insert(ctx, store.ArchiveIndex, convert.ArchiveEntryToDoc(entry))
	if err != nil {
		return model.ArchiveEntry{}, wrap(op, err)
	}
	entry.ID = id

	if err := s.store.Delete(ctx, store.Workdays, workdayID); err != nil {
		return model.ArchiveEntry{}, wrap(op, err)
	}
	return entry, nil
}

func workdayTitle(doc store.Doc) string {
	employee := convert.Str(doc["employeeName"])
	date := convert.Time(doc["date"])
	switch {
	case employee != "" && !date.IsZero():
		return fmt.Sprintf("Workday %s %s", employee, date.Format("2006-01-02"))
	case employee != "":
		return "Workday " + employee
	case !date.IsZero():
		return "Workday " + date.Format("2006-01-02")
	default:
		return "Workday"
	}
}
