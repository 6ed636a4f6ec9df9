package models

import "io"

// OwnerTypeAccount is the BlobStore owner type of account-level files
// (profile images and the like).
const OwnerTypeAccount = "ACCOUNT"

// AttachmentRecord describes one binary object held by the BlobStore.
// Records are addressed by (OwnerType, OwnerID); Key is the object key
// inside the bucket.
type AttachmentRecord struct {
	Name      string
	URL       string
	Key       string
	OwnerType string
	OwnerID   string
}

// AttachmentChange is an existing record together with the caller's
// decision to drop it during a replace.
type AttachmentChange struct {
	Record  AttachmentRecord
	Deleted bool
}

// Upload is a new file to be stored for an owner.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
