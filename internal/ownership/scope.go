// Package ownership implements the visibility policy applied to every
// listing and lookup: which rows the requesting account may see.
//
// The rules, per collection:
//
//   - Accounts: superusers see all; everyone else sees themselves plus
//     their direct reports (accounts whose profile.created_by points at
//     the requester). No transitive closure.
//   - Sales models and sale records: superusers see all; everyone else
//     sees rows owned by an account in their visible-account set.
//   - Invitations: the root capability sees all; everyone else sees
//     invitations they sent or own.
package ownership

import (
	"github.com/bwmarrin/snowflake"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"gorm.io/gorm"
)

// Ownable is implemented by entities that belong to a single account.
// Object-level checks use it instead of reflecting over field names.
type Ownable interface {
	OwnedBy() snowflake.ID
}

// ScopeAccounts narrows an accounts query to the requester's visible set.
func ScopeAccounts(stmt *gorm.DB, id authctx.Identity) *gorm.DB {
	if id.Superuser {
		return stmt
	}
	return stmt.Where(
		"accounts.id = ? OR accounts.id IN (SELECT account_id FROM profiles WHERE created_by = ?)",
		id.AccountID, id.AccountID,
	)
}

// ScopeSalesModels narrows a sales-models query to models owned by the
// requester or one of its direct reports.
func ScopeSalesModels(stmt *gorm.DB, id authctx.Identity) *gorm.DB {
	if id.Superuser {
		return stmt
	}
	return stmt.Where(
		"sales_models.owner_id = ? OR sales_models.owner_id IN (SELECT account_id FROM profiles WHERE created_by = ?)",
		id.AccountID, id.AccountID,
	)
}

// ScopeSaleRecords narrows a sale-records query through the owning model.
func ScopeSaleRecords(stmt *gorm.DB, id authctx.Identity) *gorm.DB {
	if id.Superuser {
		return stmt
	}
	return stmt.Where(
		`sale_records.model_id IN (
			SELECT id FROM sales_models
			WHERE owner_id = ? OR owner_id IN (SELECT account_id FROM profiles WHERE created_by = ?)
		)`,
		id.AccountID, id.AccountID,
	)
}

// ScopeInvitations narrows an invitations query. Full visibility is a
// root capability, not a superuser one.
func ScopeInvitations(stmt *gorm.DB, id authctx.Identity) *gorm.DB {
	if id.Root {
		return stmt
	}
	return stmt.Where(
		"invitations.sent_by = ? OR invitations.owner_id = ?",
		id.AccountID, id.AccountID,
	)
}

// CanAccess reports whether the requester may operate on an owned
// entity: superusers always, owners always, and admins on entities
// owned by their direct reports.
func CanAccess(db *gorm.DB, id authctx.Identity, entity Ownable) (bool, error) {
	if id.Superuser {
		return true, nil
	}
	owner := entity.OwnedBy()
	if owner == id.AccountID {
		return true, nil
	}
	var count int64
	err := db.Table("profiles").
		Where("account_id = ? AND created_by = ?", owner, id.AccountID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
