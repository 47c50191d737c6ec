// Package domain contains core types for contact-message intake.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecentWindow is how long a message counts as recent.
const RecentWindow = 24 * time.Hour

// ContactMessage is a public inbound message from the contact form.
type ContactMessage struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	Subject   string       `gorm:"type:text" json:"subject"`
	Message   string       `gorm:"type:text;not null" json:"message"`
	Read      bool         `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ContactMessage) TableName() string { return "contact_messages" }

// IsRecent reports whether the message arrived within the last day.
func (m *ContactMessage) IsRecent(now time.Time) bool {
	return now.Sub(m.CreatedAt) < RecentWindow
}
