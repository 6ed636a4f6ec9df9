package models

import (
	"strings"
	"time"
)

// Kind distinguishes content entities. It also decides the BlobStore owner
// type under which the entity's attachments are stored.
type Kind string

const (
	KindPost Kind = "post"
	KindPet  Kind = "pet"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindPost || k == KindPet
}

// OwnerType returns the BlobStore owner type tag for k ("POST", "PET").
func (k Kind) OwnerType() string {
	return strings.ToUpper(string(k))
}

// CategoryUrgent is the category of missing-pet posts, which get a larger
// attachment allowance.
const CategoryUrgent = "urgent"

// Content is a post or a pet profile owned by an account.
//
// HasAttachment mirrors whether the BlobStore holds at least one record for
// (Kind.OwnerType(), ID). It may lag behind as false after a failed upload,
// but is never left true once every attachment is gone.
type Content struct {
	ID            string
	OwnerID       string
	Kind          Kind
	Category      string
	Title         string
	Body          string
	HasAttachment bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwnerType returns the BlobStore owner type of the content.
func (c *Content) OwnerType() string {
	return c.Kind.OwnerType()
}
