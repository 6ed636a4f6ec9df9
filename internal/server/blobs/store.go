// Package blobs implements the BlobStore: binary attachments kept in an
// S3-compatible bucket and addressed by (ownerType, ownerID).
package blobs

import (
	"context"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
)

// Store is the BlobStore contract. Every operation is keyed by the owner
// pair, never by a single file.
type Store interface {
	List(ctx context.Context, ownerType, ownerID string) ([]models.AttachmentRecord, error)
	Store(ctx context.Context, ownerType, ownerID string, files []models.Upload) error
	Update(ctx context.Context, ownerType, ownerID string, files []models.Upload, removed []models.AttachmentRecord) error
	DeleteAllForOwner(ctx context.Context, ownerType, ownerID string) error
}
