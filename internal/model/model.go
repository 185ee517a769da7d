// Package model defines domain entities used by services and stores.
package model

import "time"

// DefaultRetentionDays is applied when a caller does not specify a retention period.
const DefaultRetentionDays = 365

// ArchiveType tags what kind of record an archive entry describes.
type ArchiveType string

const (
	ArchiveTypeTicket  ArchiveType = "ticket"
	ArchiveTypeWorkday ArchiveType = "workday"
	ArchiveTypeImage   ArchiveType = "image"
)

// ArchiveTypes lists all known archive types. Tests iterate it to keep the
// type -> destination-collection mapping exhaustive.
func ArchiveTypes() []ArchiveType {
	return []ArchiveType{ArchiveTypeTicket, ArchiveTypeWorkday, ArchiveTypeImage}
}

// ArchiveEntryStatus is the lifecycle state of a catalog entry.
// Restored is terminal: an entry is consumed by at most one restoration.
type ArchiveEntryStatus string

const (
	ArchiveEntryArchived ArchiveEntryStatus = "archived"
	ArchiveEntryRestored ArchiveEntryStatus = "restored"
)

// TicketArchiveStatus is the archive progression of a ticket record.
type TicketArchiveStatus string

const (
	TicketActive         TicketArchiveStatus = "active"
	TicketImagesArchived TicketArchiveStatus = "images_archived"
	TicketFullyArchived  TicketArchiveStatus = "fully_archived"
)

// ArchiveEntry is the canonical, queryable descriptor of one archived item,
// independent of where the original data lives.
type ArchiveEntry struct {
	ID            string
	Type          ArchiveType
	OriginalID    string // id in the source domain collection
	Title         string
	Date          time.Time // the item's business date, not archival time
	ArchivedAt    time.Time
	Status        ArchiveEntryStatus
	Metadata      map[string]any // snapshot of the original record
	RetentionDays int
	ExpiresAt     time.Time // always ArchivedAt + RetentionDays days
	RestoredAt    time.Time // zero until restored
	RestoredID    string    // id of the record created by restoration
}

// ArchiveImageRecord is the detail record for one archived image, stored
// separately from its index summary.
type ArchiveImageRecord struct {
	ID            string
	OriginalID    string // image id on the ticket
	TicketID      string
	Path          string
	Size          int64
	ContentType   string
	RetentionDays int
	ExpiresAt     time.Time
	ArchivedAt    time.Time
}

// TicketImage is one image reference on a ticket.
type TicketImage struct {
	ID          string
	Path        string
	Size        int64
	ContentType string
	Archived    bool
	ArchivedAt  time.Time
}

// Ticket carries the archive-relevant subset of a domain ticket.
type Ticket struct {
	ID             string
	Number         string
	Jobsite        string
	Date           time.Time
	Images         []TicketImage
	ArchiveStatus  TicketArchiveStatus
	ArchiveDate    time.Time
	ArchivedImages []string // image ids copied at archive time
	ArchiveFile    string   // export artifact name, set at full archival
	ArchiveRow     int      // row inside the export artifact
}

// AllImagesArchived reports whether every image on the ticket is flagged archived.
// Vacuously false for a ticket with no images.
func (t *Ticket) AllImagesArchived() bool {
	if len(t.Images) == 0 {
		return false
	}
	for i := range t.Images {
		if !t.Images[i].Archived {
			return false
		}
	}
	return true
}

// SearchParams filters the archive catalog. The zero value lists everything
// with the default page size.
type SearchParams struct {
	Type            string // ticket(s), workday(s), image(s), all or empty
	StartDate       time.Time
	EndDate         time.Time
	MetadataFilters map[string]any // dot-addressed exact-match fields
	Limit           int            // default 10
	Offset          int
}

// SearchResult is one page of catalog entries.
type SearchResult struct {
	Items   []ArchiveEntry
	Total   int64
	HasMore bool
}

// ArchiveImagesResult reports the outcome of one batch image archival.
// Success means at least one image was archived; FailedIDs lists the rest.
type ArchiveImagesResult struct {
	Success       bool
	ArchivedCount int
	TicketID      string
	FailedIDs     []string
}

// RestoreResult reports a completed restoration.
type RestoreResult struct {
	Success    bool
	OriginalID string
	NewID      string
	Type       ArchiveType
}

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Checked  int // image entries examined
	Repaired int // ticket image flags brought back in sync
	Failed   int // entries skipped after exhausting retries
}
