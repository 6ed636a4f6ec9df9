package models

import "time"

// Purge step kinds.
const (
	// StepBlobs deletes every BlobStore object of (OwnerType, OwnerID).
	StepBlobs = "blobs"
	// StepDependents asks the profile service to purge rows owned by OwnerID.
	StepDependents = "dependents"
)

// Purge step statuses.
const (
	PurgeStatusPending = "pending"
	PurgeStatusDone    = "done"
	PurgeStatusFailed  = "failed"
)

// PurgeStep is a durable, idempotent cleanup action recorded when a
// best-effort remote deletion failed. The cascade job retries pending steps.
type PurgeStep struct {
	ID        string
	OwnerType string
	OwnerID   string
	Step      string
	Status    string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
