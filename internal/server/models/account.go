// Package models defines server-side data models persisted in the database
// or exchanged with remote services.
package models

import "time"

// Account is a member account. ID is the member's email address.
//
// Withdrawal only sets Deleted; the row and everything the account owns is
// removed by the cascade delete job once the grace period has passed since
// ModifiedAt.
type Account struct {
	ID         string
	Nickname   string
	Deleted    bool
	DeletedAt  *time.Time
	CreatedAt  time.Time
	ModifiedAt time.Time
}
