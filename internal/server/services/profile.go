package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
)

// PurgeResult reports what PurgeOwner removed.
type PurgeResult struct {
	Contents        int   `json:"contents"`
	CalendarEntries int64 `json:"calendarEntries"`
	DeferredBlobs   int   `json:"deferredBlobs"`
}

// ProfileService owns the content and calendar rows of an account. It is the
// dependent service the cascade delete job calls for every purged account.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	attachments *AttachmentManager
	logger      logging.Logger
}

func NewProfileService(db *sql.DB, rm repomanager.RepositoryManager, am *AttachmentManager, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: rm,
		attachments: am,
		logger:      logger.With("module", "profiles"),
	}
}

// PurgeOwner deletes every calendar entry and content of ownerID in one
// transaction, then removes the attachments of each deleted content. The
// call is idempotent: purging an owner without rows succeeds.
func (s *ProfileService) PurgeOwner(ctx context.Context, ownerID string) (*PurgeResult, error) {
	res := &PurgeResult{}
	var ownerTypes, ids []string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Calendar(tx).DeleteByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		res.CalendarEntries = n

		deleted, err := s.repomanager.Contents(tx).DeleteByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		res.Contents = len(deleted)
		for _, c := range deleted {
			ownerTypes = append(ownerTypes, c.OwnerType())
			ids = append(ids, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error purging owner %s: %w", ownerID, err)
	}

	// has_attachment may be a false negative, so every deleted content is cleaned.
	for i := range ids {
		if err := s.attachments.DetachAll(ctx, ownerTypes[i], ids[i]); err != nil {
			s.logger.Warn(ctx, "attachment cleanup deferred", "owner_id", ownerID, "content_id", ids[i], "error", err)
			enqueueBlobCleanup(ctx, s.repomanager, s.db, s.logger, ownerTypes[i], ids[i], err)
			res.DeferredBlobs++
		}
	}

	s.logger.Info(ctx, "owner purged", "owner_id", ownerID,
		"contents", res.Contents, "calendar_entries", res.CalendarEntries, "deferred_blobs", res.DeferredBlobs)
	return res, nil
}
