// Package authorization enforces role-based action gates on top of the
// ownership row filters. Roles are granted at provisioning time and
// persisted through the casbin gorm adapter.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin = "role:admin"
	RoleRoot  = "role:root"
)

const (
	ObjectAccount        = "account"
	ObjectStaffAccount   = "staff_account"
	ObjectSalesModel     = "sales_model"
	ObjectSaleRecord     = "sale_record"
	ObjectInvitation     = "invitation"
	ObjectContactMessage = "contact_message"
	ObjectAuditLog       = "audit_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
	ActionSend   = "send"
	ActionCancel = "cancel"
)

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrForbidden    = errors.New("forbidden")
)

type Service interface {
	Authorize(ctx context.Context, accountID snowflake.ID, object string, action string) error
	GrantRole(ctx context.Context, accountID snowflake.ID, role string) error
	RevokeRoles(ctx context.Context, accountID snowflake.ID) error
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, accountID snowflake.ID, object string, action string) error {
	if accountID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	action = strings.TrimSpace(action)
	if object == "" || action == "" {
		return ErrForbidden
	}

	allowed, err := s.enforcer.Enforce(subject(accountID), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("account_id", accountID.String()),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) GrantRole(ctx context.Context, accountID snowflake.ID, role string) error {
	if accountID == 0 {
		return ErrInvalidActor
	}
	if role != RoleAdmin && role != RoleRoot {
		return fmt.Errorf("unknown role %q", role)
	}
	_, err := s.enforcer.AddGroupingPolicy(subject(accountID), role)
	return err
}

func (s *ServiceImpl) RevokeRoles(ctx context.Context, accountID snowflake.ID) error {
	if accountID == 0 {
		return ErrInvalidActor
	}
	_, err := s.enforcer.RemoveFilteredGroupingPolicy(0, subject(accountID))
	return err
}

func subject(accountID snowflake.ID) string {
	return fmt.Sprintf("account:%s", accountID.String())
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Admin permissions: manage owned rows; the ownership scope
		// narrows which rows those are.
		{RoleAdmin, ObjectAccount, ActionView},
		{RoleAdmin, ObjectAccount, ActionCreate},
		{RoleAdmin, ObjectAccount, ActionUpdate},
		{RoleAdmin, ObjectAccount, ActionDelete},
		{RoleAdmin, ObjectSalesModel, ActionView},
		{RoleAdmin, ObjectSalesModel, ActionCreate},
		{RoleAdmin, ObjectSalesModel, ActionUpdate},
		{RoleAdmin, ObjectSalesModel, ActionDelete},
		{RoleAdmin, ObjectSaleRecord, ActionView},
		{RoleAdmin, ObjectSaleRecord, ActionCreate},
		{RoleAdmin, ObjectSaleRecord, ActionDelete},
		{RoleAdmin, ObjectInvitation, ActionView},
		{RoleAdmin, ObjectInvitation, ActionCreate},
		{RoleAdmin, ObjectInvitation, ActionSend},
		{RoleAdmin, ObjectInvitation, ActionCancel},

		// Root-only permissions.
		{RoleRoot, ObjectStaffAccount, ActionManage},
		{RoleRoot, ObjectContactMessage, ActionManage},
		{RoleRoot, ObjectAuditLog, ActionView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Root inherits every admin permission.
	if _, err := enforcer.AddGroupingPolicy(RoleRoot, RoleAdmin); err != nil {
		return err
	}
	return nil
}
