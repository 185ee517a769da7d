// Package convert maps domain models to and from store documents. Documents
// may have crossed a JSON boundary, so decoding tolerates float64 numbers and
// RFC 3339 timestamp strings.
package convert

import (
	"time"

	"github.com/msavelyev/haulbase/internal/model"
	"github.com/msavelyev/haulbase/internal/store"
)

// ArchiveEntryToDoc renders a catalog entry as a store document.
func ArchiveEntryToDoc(e model.ArchiveEntry) store.Doc {
	doc := store.Doc{
		"id":              e.ID,
		"type":            string(e.Type),
		"originalId":      e.OriginalID,
		"title":           e.Title,
		"date":            e.Date,
		"archivedAt":      e.ArchivedAt,
		"status":          string(e.Status),
		"metadata":        e.Metadata,
		"retentionPeriod": e.RetentionDays,
		"expiresAt":       e.ExpiresAt,
	}
	if !e.RestoredAt.IsZero() {
		doc["restoredAt"] = e.RestoredAt
		doc["restoredId"] = e.RestoredID
	}
	return doc
}

// ArchiveEntryFromDoc decodes a catalog entry.
func ArchiveEntryFromDoc(doc store.Doc) model.ArchiveEntry {
	return model.ArchiveEntry{
		ID:            Str(doc["id"]),
		Type:          model.ArchiveType(Str(doc["type"])),
		OriginalID:    Str(doc["originalId"]),
		Title:         Str(doc["title"]),
		Date:          Time(doc["date"]),
		ArchivedAt:    Time(doc["archivedAt"]),
		Status:        model.ArchiveEntryStatus(Str(doc["status"])),
		Metadata:      Map(doc["metadata"]),
		RetentionDays: Int(doc["retentionPeriod"]),
		ExpiresAt:     Time(doc["expiresAt"]),
		RestoredAt:    Time(doc["restoredAt"]),
		RestoredID:    Str(doc["restoredId"]),
	}
}

// ImageRecordToDoc renders an archived-image detail record.
func ImageRecordToDoc(r model.ArchiveImageRecord) store.Doc {
	return store.Doc{
		"id":              r.ID,
		"originalId":      r.OriginalID,
		"ticketId":        r.TicketID,
		"path":            r.Path,
		"size":            r.Size,
		"contentType":     r.ContentType,
		"retentionPeriod": r.RetentionDays,
		"expiresAt":       r.ExpiresAt,
		"archivedAt":      r.ArchivedAt,
	}
}

// TicketToDoc renders a ticket with its archive fields.
func TicketToDoc(t model.Ticket) store.Doc {
	images := make([]any, 0, len(t.Images))
	for _, img := range t.Images {
		images = append(images, imageToDoc(img))
	}
	doc := store.Doc{
		"id":            t.ID,
		"number":        t.Number,
		"jobsite":       t.Jobsite,
		"date":          t.Date,
		"images":        images,
		"archiveStatus": string(t.ArchiveStatus),
	}
	if !t.ArchiveDate.IsZero() {
		doc["archiveDate"] = t.ArchiveDate
	}
	if len(t.ArchivedImages) > 0 {
		doc["archivedImages"] = t.ArchivedImages
	}
	if t.ArchiveFile != "" {
		doc["archiveFile"] = t.ArchiveFile
		doc["archiveRow"] = t.ArchiveRow
	}
	return doc
}

// TicketFromDoc decodes a ticket. Missing archiveStatus defaults to active.
func TicketFromDoc(doc store.Doc) model.Ticket {
	t := model.Ticket{
		ID:             Str(doc["id"]),
		Number:         Str(doc["number"]),
		Jobsite:        Str(doc["jobsite"]),
		Date:           Time(doc["date"]),
		ArchiveStatus:  model.TicketArchiveStatus(Str(doc["archiveStatus"])),
		ArchiveDate:    Time(doc["archiveDate"]),
		ArchivedImages: StrSlice(doc["archivedImages"]),
		ArchiveFile:    Str(doc["archiveFile"]),
		ArchiveRow:     Int(doc["archiveRow"]),
	}
	if t.ArchiveStatus == "" {
		t.ArchiveStatus = model.TicketActive
	}
	if imgs, ok := doc["images"].([]any); ok {
		t.Images = make([]model.TicketImage, 0, len(imgs))
		for _, raw := range imgs {
			if m, ok := raw.(map[string]any); ok {
				t.Images = append(t.Images, imageFromDoc(m))
			}
		}
	}
	return t
}

// TicketImagesToDocs renders a ticket's image list for a partial update.
func TicketImagesToDocs(images []model.TicketImage) []any {
	out := make([]any, 0, len(images))
	for _, img := range images {
		out = append(out, imageToDoc(img))
	}
	return out
}

func imageToDoc(img model.TicketImage) store.Doc {
	doc := store.Doc{
		"id":          img.ID,
		"path":        img.Path,
		"size":        img.Size,
		"contentType": img.ContentType,
		"archived":    img.Archived,
	}
	if !img.ArchivedAt.IsZero() {
		doc["archivedAt"] = img.ArchivedAt
	}
	return doc
}

func imageFromDoc(doc store.Doc) model.TicketImage {
	return model.TicketImage{
		ID:          Str(doc["id"]),
		Path:        Str(doc["path"]),
		Size:        Int64(doc["size"]),
		ContentType: Str(doc["contentType"]),
		Archived:    Bool(doc["archived"]),
		ArchivedAt:  Time(doc["archivedAt"]),
	}
}

// Str coerces a document field to a string; nil and non-strings become "".
func Str(v any) string {
	s, _ := v.(string)
	return s
}

// Bool coerces a document field to a bool.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Int coerces a document field to an int across JSON numeric renderings.
func Int(v any) int { return int(Int64(v)) }

// Int64 coerces a document field to an int64 across JSON numeric renderings.
func Int64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// Time coerces a document field to a timestamp; unknown renderings are zero.
func Time(v any) time.Time {
	t, _ := store.AsTime(v)
	return t
}

// Map coerces a document field to a nested document.
func Map(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// StrSlice coerces a document field holding a string list.
func StrSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, Str(e))
		}
		return out
	}
	return nil
}
