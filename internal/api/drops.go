package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// PendingDrop is a server-side drop registration: an ID to upload bytes
// into and the public share URL, which is valid before any bytes arrive.
type PendingDrop struct {
	ID  string `json:"_id"` //nolint:tagliatelle // backend field name
	URL string `json:"url"`
}

// DropRecord is a raw drop entry as returned by GetDrops. Optional fields
// are empty strings when absent; the session layer decides what is usable.
type DropRecord struct {
	ID         string `json:"_id"` //nolint:tagliatelle // backend field name
	Name       string `json:"name"`
	URL        string `json:"url"`
	ShortID    string `json:"short_id"`
	Type       string `json:"type"`
	Path       string `json:"path"`
	UploadDate string `json:"upload_date"`
	Views      int    `json:"views"`
}

type dropsResponse struct {
	Drops []DropRecord `json:"drops"`
}

// InitializeDrop registers a pending drop server-side. The returned public
// URL can be shared immediately, before the file content is uploaded.
func (c *Client) InitializeDrop(ctx context.Context, userID, token string) (*PendingDrop, error) {
	c.logger.Info("initializing drop", slog.String("user_id", userID))

	path := fmt.Sprintf("/users/%s/drops", url.PathEscape(userID))

	var out PendingDrop
	if err := c.doJSON(ctx, http.MethodPost, path, token, nil, &out); err != nil {
		return nil, err
	}

	if out.URL == "" || out.ID == "" {
		return nil, fmt.Errorf("%w: initialize drop response missing id or url", ErrMalformedResponse)
	}

	return &out, nil
}

// GetDrops fetches all drop records for the user. Records may be
// incomplete (drops still uploading); callers must filter.
func (c *Client) GetDrops(ctx context.Context, userID, token string) ([]DropRecord, error) {
	c.logger.Debug("fetching drops", slog.String("user_id", userID))

	path := fmt.Sprintf("/users/%s/drops/", url.PathEscape(userID))

	var out dropsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}

	return out.Drops, nil
}
