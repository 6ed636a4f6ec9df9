package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/contents"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ContentInput is a create or update request for a post or a pet profile.
// Remove lists attachment names (or keys) to drop on update.
type ContentInput struct {
	Category string
	Title    string
	Body     string
	Files    []models.Upload
	Remove   []string
}

// ContentDetails is a content together with its current attachments.
type ContentDetails struct {
	*models.Content
	Attachments []models.AttachmentRecord
}

// ContentService implements the request-time flows of posts and pet
// profiles. Attachment handling is delegated to AttachmentManager.
type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	attachments *AttachmentManager
	logger      logging.Logger
}

func NewContentService(db *sql.DB, rm repomanager.RepositoryManager, am *AttachmentManager, logger logging.Logger) *ContentService {
	return &ContentService{
		db:          db,
		repomanager: rm,
		attachments: am,
		logger:      logger.With("module", "contents"),
	}
}

// Create checks the cap, inserts the row and then uploads the files.
// If the upload fails the row stays with has_attachment false.
func (s *ContentService) Create(ctx context.Context, ownerID string, kind models.Kind, in ContentInput) (*ContentDetails, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrorValidation, kind)
	}
	if err := s.attachments.CheckLimit(in.Category, len(in.Files), 0); err != nil {
		return nil, err
	}

	c := &models.Content{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Kind:     kind,
		Category: in.Category,
		Title:    in.Title,
		Body:     in.Body,
	}
	c, err := s.repomanager.Contents(s.db).Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error creating %s: %w", kind, err)
	}

	if err := s.attachments.Attach(ctx, c, in.Files, 0); err != nil {
		s.logger.Warn(ctx, "content saved without attachments", "content_id", c.ID, "error", err)
		return nil, err
	}

	return s.details(ctx, c)
}

// Get returns the content with its attachments listed from the BlobStore.
func (s *ContentService) Get(ctx context.Context, kind models.Kind, id string) (*ContentDetails, error) {
	c, err := s.find(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, c)
}

// ListMine returns the contents of one kind owned by ownerID, oldest first,
// each with its attachments.
func (s *ContentService) ListMine(ctx context.Context, ownerID string, kind models.Kind) ([]*ContentDetails, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrorValidation, kind)
	}

	all, err := s.repomanager.Contents(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing contents of %s: %w", ownerID, err)
	}

	result := make([]*ContentDetails, 0, len(all))
	for _, c := range all {
		if c.Kind != kind {
			continue
		}
		d, err := s.details(ctx, c)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// Update changes the fields of a content owned by ownerID and replaces its
// attachments. The kept set is taken from the BlobStore listing; names in
// in.Remove that match no record are ignored.
func (s *ContentService) Update(ctx context.Context, ownerID string, kind models.Kind, id string, in ContentInput) (*ContentDetails, error) {
	c, err := s.findOwned(ctx, ownerID, kind, id)
	if err != nil {
		return nil, err
	}

	if in.Category != "" {
		c.Category = in.Category
	}
	c.Title = in.Title
	c.Body = in.Body

	current, err := s.attachments.Inventory(ctx, c)
	if err != nil {
		return nil, err
	}

	remove := make(map[string]struct{}, len(in.Remove))
	for _, name := range in.Remove {
		remove[name] = struct{}{}
	}
	changes := make([]models.AttachmentChange, 0, len(current))
	kept := 0
	for _, r := range current {
		_, byName := remove[r.Name]
		_, byKey := remove[r.Key]
		changes = append(changes, models.AttachmentChange{Record: r, Deleted: byName || byKey})
		if !byName && !byKey {
			kept++
		}
	}

	if err := s.attachments.CheckLimit(c.Category, len(in.Files), kept); err != nil {
		return nil, err
	}

	if err := s.repomanager.Contents(s.db).Update(ctx, c); err != nil {
		return nil, fmt.Errorf("error updating %s: %w", c.ID, err)
	}

	if err := s.attachments.Replace(ctx, c, changes, in.Files); err != nil {
		return nil, err
	}

	return s.details(ctx, c)
}

// Delete removes a content owned by ownerID and then its attachments. A
// failed BlobStore cleanup is recorded in the purge outbox and does not fail
// the request.
func (s *ContentService) Delete(ctx context.Context, ownerID string, kind models.Kind, id string) error {
	c, err := s.findOwned(ctx, ownerID, kind, id)
	if err != nil {
		return err
	}

	if err := s.repomanager.Contents(s.db).Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("error deleting %s: %w", c.ID, err)
	}

	if err := s.attachments.DetachAll(ctx, c.OwnerType(), c.ID); err != nil {
		s.logger.Warn(ctx, "attachment cleanup deferred", "content_id", c.ID, "error", err)
		enqueueBlobCleanup(ctx, s.repomanager, s.db, s.logger, c.OwnerType(), c.ID, err)
	}
	return nil
}

func (s *ContentService) find(ctx context.Context, kind models.Kind, id string) (*models.Content, error) {
	return findContent(ctx, s.repomanager.Contents(s.db), kind, id)
}

func (s *ContentService) findOwned(ctx context.Context, ownerID string, kind models.Kind, id string) (*models.Content, error) {
	return findOwnedContent(ctx, s.repomanager.Contents(s.db), ownerID, kind, id)
}

// findContent loads a content of the given kind. A content of another kind
// is reported as not found.
func findContent(ctx context.Context, repo contents.Repository, kind models.Kind, id string) (*models.Content, error) {
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading %s: %w", id, err)
	}
	if c.Kind != kind {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func findOwnedContent(ctx context.Context, repo contents.Repository, ownerID string, kind models.Kind, id string) (*models.Content, error) {
	c, err := findContent(ctx, repo, kind, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, common.ErrorUnauthorized
	}
	return c, nil
}

func (s *ContentService) details(ctx context.Context, c *models.Content) (*ContentDetails, error) {
	records, err := s.attachments.List(ctx, c)
	if err != nil {
		return nil, err
	}
	return &ContentDetails{Content: c, Attachments: records}, nil
}

// enqueueBlobCleanup records a pending blob deletion for the owner. Errors
// are logged only; the caller's operation already succeeded.
func enqueueBlobCleanup(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB, logger logging.Logger, ownerType, ownerID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := rm.Purges(db).Enqueue(ctx, ownerType, ownerID, models.StepBlobs, cause.Error()); err != nil {
		logger.Error(ctx, "failed to enqueue blob cleanup", "owner_type", ownerType, "owner_id", ownerID, "error", err)
	}
}
