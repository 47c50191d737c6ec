// Package domain contains core types for the account service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
)

// Account represents an authenticated identity record. Email doubles as
// the login handle.
type Account struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash *string      `gorm:"type:text" json:"-"`
	FirstName    string       `gorm:"type:text" json:"first_name"`
	LastName     string       `gorm:"type:text" json:"last_name"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool         `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool         `gorm:"not null;default:false" json:"is_superuser"`

	// IsRoot is the root capability: full invitation visibility and the
	// right to manage staff accounts. Resolved at provisioning time,
	// never by comparing literal emails.
	IsRoot bool `gorm:"not null;default:false" json:"is_root"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:AccountID" json:"profile,omitempty"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Profile extends an Account with security and ownership metadata.
type Profile struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID `gorm:"column:account_id;not null;uniqueIndex" json:"account_id"`

	// CreatedBy references the account that provisioned this one. Staff
	// accounts eventually point at themselves or another staff account;
	// normal accounts may stay null until assigned.
	CreatedBy *snowflake.ID `gorm:"column:created_by;index" json:"created_by,omitempty"`

	TwoFactorEnabled bool           `gorm:"not null;default:false" json:"two_factor_enabled"`
	TwoFactorSecret  *string        `gorm:"type:text" json:"-"`
	BackupCodes      pq.StringArray `gorm:"type:text[]" json:"-"`

	FailedLoginAttempts int        `gorm:"not null;default:0" json:"failed_login_attempts"`
	LockedUntil         *time.Time `gorm:"column:locked_until" json:"locked_until,omitempty"`
	LastPasswordChange  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_password_change"`

	EmailVerified bool    `gorm:"not null;default:false" json:"email_verified"`
	Phone         *string `gorm:"type:text" json:"phone,omitempty"`
	PhoneVerified bool    `gorm:"not null;default:false" json:"phone_verified"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Profile) TableName() string { return "profiles" }

// IsLocked reports whether the account is currently locked out.
func (p *Profile) IsLocked(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// FullName joins first and last name for display.
func (a *Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}
