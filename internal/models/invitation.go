package models

import "time"

// Invitation is a pending admin invitation. Only the hash of its token is
// persisted; the plain token exists solely in the dispatched link.
type Invitation struct {
	Email     string    `json:"email"`
	TokenHash string    `json:"-"`
	InvitedBy string    `json:"invited_by,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (i Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
