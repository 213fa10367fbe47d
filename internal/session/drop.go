package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/andinfinity/idroplink-go/internal/api"
)

// uploadDateLayout is the fixed wire format of the backend's upload_date
// field, always UTC.
const uploadDateLayout = "2006-01-02T15:04:05.000Z"

// Drop is a single uploaded file with a public share URL. Drops are
// immutable once created; the list changes only by full resync or logout.
type Drop struct {
	ID      string
	Name    string
	URL     string
	ShortID string
	Type    string
	Path    string
	Views   int

	// DropDate is the display string for the upload date: relative when
	// the wire date parsed, the raw wire value otherwise.
	DropDate string

	// UploadedAt is the parsed upload date, zero when parsing failed.
	UploadedAt time.Time
}

// dropFromRecord validates and converts a wire record. Records missing
// name, url, or id represent drops still uploading or failed; they are
// rejected (ok false) and must not be stored.
func dropFromRecord(rec api.DropRecord, now time.Time) (Drop, bool) {
	if rec.Name == "" || rec.URL == "" || rec.ID == "" {
		return Drop{}, false
	}

	drop := Drop{
		ID:      rec.ID,
		Name:    rec.Name,
		URL:     rec.URL,
		ShortID: rec.ShortID,
		Type:    rec.Type,
		Path:    rec.Path,
		Views:   rec.Views,
	}

	when, err := time.Parse(uploadDateLayout, rec.UploadDate)
	if err != nil {
		// Show the raw value rather than dropping the record.
		drop.DropDate = rec.UploadDate
		return drop, true
	}

	drop.UploadedAt = when
	drop.DropDate = formatRelativeDate(when, now)

	return drop, true
}

// formatRelativeDate renders a past timestamp for display: relative up to
// a week, a compact absolute date beyond that.
func formatRelativeDate(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < 2*time.Minute:
		return "a minute ago"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 2*time.Hour:
		return "an hour ago"
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	case t.Year() == now.Year():
		return t.Format("Jan _2 15:04")
	default:
		return t.Format("Jan _2 2006")
	}
}

// logSkippedRecord notes a rejected wire record at debug level.
func (s *Session) logSkippedRecord(rec api.DropRecord) {
	s.logger.Debug("skipping incomplete drop record",
		slog.String("id", rec.ID),
		slog.String("name", rec.Name),
	)
}
