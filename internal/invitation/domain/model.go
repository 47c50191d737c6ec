// Package domain contains core types for the invitation lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invitation channel.
const (
	TypeEmail = "email"
	TypeSMS   = "sms"
)

// Invitation status. Used, expired and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusUsed      = "used"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// TTL is the lifetime of an invitation from creation.
const TTL = 7 * 24 * time.Hour

// Invitation is a time-boxed, single-use signup token for a named
// contact, delivered by email or SMS.
type Invitation struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	ContactName    string        `gorm:"type:text;not null" json:"contact_name"`
	ContactEmail   *string       `gorm:"type:text;index" json:"contact_email,omitempty"`
	ContactPhone   *string       `gorm:"type:text" json:"contact_phone,omitempty"`
	InvitationType string        `gorm:"type:text;not null" json:"invitation_type"`
	Subject        string        `gorm:"type:text" json:"subject"`
	Message        string        `gorm:"type:text" json:"message"`
	Token          string        `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Status         string        `gorm:"type:text;not null;default:pending;index" json:"status"`
	ExpiresAt      time.Time     `gorm:"not null" json:"expires_at"`
	SentBy         snowflake.ID  `gorm:"column:sent_by;not null;index" json:"sent_by"`
	OwnerID        *snowflake.ID `gorm:"column:owner_id;index" json:"owner_id,omitempty"`

	UsedAt        *time.Time    `gorm:"column:used_at" json:"used_at,omitempty"`
	UsedIP        string        `gorm:"column:used_ip;type:text" json:"-"`
	UsedUserAgent string        `gorm:"column:used_user_agent;type:text" json:"-"`
	CreatedUserID *snowflake.ID `gorm:"column:created_user_id" json:"created_user_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }

// OwnedBy returns the account responsible for this invitation.
func (i *Invitation) OwnedBy() snowflake.ID {
	if i.OwnerID != nil {
		return *i.OwnerID
	}
	return i.SentBy
}

// IsExpired reports whether the invitation is past its expiry. Purely
// time-based; the stored status is not consulted or changed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsValid reports whether the invitation can still be consumed:
// status pending or sent, and not yet expired.
func (i *Invitation) IsValid(now time.Time) bool {
	if i.Status != StatusPending && i.Status != StatusSent {
		return false
	}
	return !i.IsExpired(now)
}
