// Package services contains server-side business logic. This file implements
// AttachmentManager, which keeps a content's has_attachment flag in step with
// the BlobStore and enforces per-category attachment caps.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/metrics"
	"github.com/dmitrijs2005/lifecycle/internal/server/blobs"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
)

// Caps maps a content category to the maximum number of attachments.
type Caps struct {
	byCategory map[string]int
	def        int
}

func NewCaps(byCategory map[string]int, def int) Caps {
	m := make(map[string]int, len(byCategory))
	for k, v := range byCategory {
		m[k] = v
	}
	return Caps{byCategory: m, def: def}
}

// Limit returns the cap of category, falling back to the default cap.
func (c Caps) Limit(category string) int {
	if v, ok := c.byCategory[category]; ok {
		return v
	}
	return c.def
}

// AttachmentManager orchestrates attachment create, replace and delete
// against the BlobStore.
//
// The flag is written with a short statement after the BlobStore call
// succeeded; no transaction is held open across the remote call. A failed
// upload therefore leaves the flag false, never true.
type AttachmentManager struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobs.Store
	caps        Caps
	logger      logging.Logger
}

func NewAttachmentManager(db *sql.DB, rm repomanager.RepositoryManager, store blobs.Store, caps Caps, logger logging.Logger) *AttachmentManager {
	return &AttachmentManager{
		db:          db,
		repomanager: rm,
		blobs:       store,
		caps:        caps,
		logger:      logger.With("module", "attachments"),
	}
}

// CheckLimit fails with ErrLimitExceeded when newCount+kept exceeds the cap
// of category. It makes no remote call.
func (m *AttachmentManager) CheckLimit(category string, newCount, kept int) error {
	limit := m.caps.Limit(category)
	if newCount+kept > limit {
		metrics.AttachmentRejections.WithLabelValues(category).Inc()
		return fmt.Errorf("%w: %d new and %d kept attachments exceed the limit of %d for %q",
			common.ErrLimitExceeded, newCount, kept, limit, category)
	}
	return nil
}

// Attach stores files for c, of which kept attachments already exist.
// The flag is set only after the BlobStore confirmed the upload.
func (m *AttachmentManager) Attach(ctx context.Context, c *models.Content, files []models.Upload, kept int) error {
	if err := m.CheckLimit(c.Category, len(files), kept); err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	if err := m.blobs.Store(ctx, c.OwnerType(), c.ID, files); err != nil {
		return fmt.Errorf("store attachments of %s: %w", c.ID, err)
	}

	return m.setFlag(ctx, c, true)
}

// Replace drops the records marked Deleted in existing and adds files.
// The cap is checked against the records that are kept. Afterwards the flag
// is true when at least one attachment remains and false when none does.
// existing must be the current BlobStore inventory of c.
func (m *AttachmentManager) Replace(ctx context.Context, c *models.Content, existing []models.AttachmentChange, files []models.Upload) error {
	var kept, removed []models.AttachmentRecord
	for _, ch := range existing {
		if ch.Deleted {
			removed = append(removed, ch.Record)
		} else {
			kept = append(kept, ch.Record)
		}
	}

	if err := m.CheckLimit(c.Category, len(files), len(kept)); err != nil {
		return err
	}
	if len(files) == 0 && len(removed) == 0 {
		return m.setFlag(ctx, c, len(kept) > 0)
	}

	if err := m.blobs.Update(ctx, c.OwnerType(), c.ID, files, removed); err != nil {
		return fmt.Errorf("update attachments of %s: %w", c.ID, err)
	}

	return m.setFlag(ctx, c, len(kept)+len(files) > 0)
}

// DetachAll removes every attachment of the owner. The flag is not touched;
// callers use it while the owning row is being deleted.
func (m *AttachmentManager) DetachAll(ctx context.Context, ownerType, ownerID string) error {
	if err := m.blobs.DeleteAllForOwner(ctx, ownerType, ownerID); err != nil {
		return fmt.Errorf("delete attachments of %s/%s: %w", ownerType, ownerID, err)
	}
	return nil
}

// List returns the attachments of a flagged content. A flagged content
// without any record has its flag cleared.
func (m *AttachmentManager) List(ctx context.Context, c *models.Content) ([]models.AttachmentRecord, error) {
	if !c.HasAttachment {
		return nil, nil
	}

	records, err := m.Inventory(ctx, c)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		m.logger.Warn(ctx, "clearing stale attachment flag", "content_id", c.ID, "owner_type", c.OwnerType())
		if err := m.setFlag(ctx, c, false); err != nil {
			m.logger.Error(ctx, "failed to clear attachment flag", "content_id", c.ID, "error", err)
		}
	}
	return records, nil
}

// Inventory lists the attachments of c from the BlobStore regardless of the
// local flag.
func (m *AttachmentManager) Inventory(ctx context.Context, c *models.Content) ([]models.AttachmentRecord, error) {
	records, err := m.blobs.List(ctx, c.OwnerType(), c.ID)
	if err != nil {
		return nil, fmt.Errorf("list attachments of %s: %w", c.ID, err)
	}
	return records, nil
}

func (m *AttachmentManager) setFlag(ctx context.Context, c *models.Content, v bool) error {
	if c.HasAttachment == v {
		return nil
	}
	if err := m.repomanager.Contents(m.db).SetHasAttachment(ctx, c.ID, v); err != nil {
		return fmt.Errorf("set attachment flag of %s: %w", c.ID, err)
	}
	c.HasAttachment = v
	return nil
}
