// Package domain contains core types for the security audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event types recorded in the trail.
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailed      = "login_failed"
	EventAccountLocked    = "account_locked"
	EventPasswordChanged  = "password_changed"
	EventInvitationSent   = "invitation_sent"
	EventInvitationUsed   = "invitation_used"
	EventAccountCreated   = "account_created"
	EventAccountDeleted   = "account_deleted"
	EventInvitationFailed = "invitation_dispatch_failed"
	EventEmailVerified    = "email_verified"
)

// SecurityEvent is one row of the audit trail. Writes are best-effort
// and must never fail the request that triggered them.
type SecurityEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	EventType string            `gorm:"type:text;not null;index" json:"event_type"`
	ActorID   *snowflake.ID     `gorm:"column:actor_id;index" json:"actor_id,omitempty"`
	Email     string            `gorm:"type:text" json:"email,omitempty"`
	IPAddress string            `gorm:"column:ip_address;type:text" json:"ip_address,omitempty"`
	UserAgent string            `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SecurityEvent) TableName() string { return "security_events" }
