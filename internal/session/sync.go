package session

import (
	"context"
	"log/slog"
	"time"
)

// SyncDrops replaces the local drop list with the backend's current
// records. Incomplete records (missing name, url, or id) are skipped, not
// stored. The previous list is fully replaced so repeated syncs never
// accumulate duplicates. Requires an authenticated session.
func (s *Session) SyncDrops(ctx context.Context) error {
	userID, token, err := s.authContext()
	if err != nil {
		return err
	}

	records, err := s.client.GetDrops(ctx, userID, token)
	if err != nil {
		return err
	}

	now := time.Now()
	drops := make([]Drop, 0, len(records))

	// The backend returns drops oldest first; prepending each accepted
	// record yields a newest-first list.
	for _, rec := range records {
		drop, ok := dropFromRecord(rec, now)
		if !ok {
			s.logSkippedRecord(rec)
			continue
		}

		drops = append([]Drop{drop}, drops...)
	}

	s.mu.Lock()
	s.drops = drops
	s.mu.Unlock()

	if s.recorder != nil {
		if recErr := s.recorder.ReplaceDrops(drops); recErr != nil {
			s.logger.Warn("could not record drops",
				slog.String("error", recErr.Error()),
			)
		}
	}

	s.notifyDropsChanged()

	s.logger.Debug("drops synced",
		slog.Int("accepted", len(drops)),
		slog.Int("received", len(records)),
	)

	return nil
}
