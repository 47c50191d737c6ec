package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/pkg/db"
	"go.uber.org/zap"
)

// identityMiddleware stands in for AuthRequired: it puts a fixed
// identity on the request context without a session lookup.
func identityMiddleware(identity authctx.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(authctx.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

func newAuthzRouter(t *testing.T, identity authctx.Identity) (*gin.Engine, authorization.Service) {
	t.Helper()

	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	enforcer, err := authorization.NewEnforcer(conn)
	if err != nil {
		t.Fatalf("build enforcer: %v", err)
	}
	authz := authorization.NewService(authorization.Params{
		Log:      zap.NewNop(),
		Enforcer: enforcer,
	})

	gin.SetMode(gin.TestMode)
	srv := &Server{authz: authz}
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.Use(identityMiddleware(identity))

	admin := router.Group("/admin", RequireStaff())
	admin.GET("/accounts",
		srv.requireAuthorized(authorization.ObjectAccount, authorization.ActionView),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)
	admin.GET("/audit-events",
		RequireRoot(),
		srv.requireAuthorized(authorization.ObjectAuditLog, authorization.ActionView),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	return router, authz
}

// A staff account with no granted role must be denied even though the
// staff flag alone would let it through RequireStaff.
func TestAdminRouteDeniesRolelessStaff(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	identity := authctx.Identity{AccountID: node.Generate(), Staff: true}

	router, _ := newAuthzRouter(t, identity)

	req := httptest.NewRequest(http.MethodGet, "/admin/accounts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for role-less staff, got %d", rec.Code)
	}
}

func TestAdminRouteAllowsGrantedAdmin(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	identity := authctx.Identity{AccountID: node.Generate(), Staff: true}

	router, authz := newAuthzRouter(t, identity)
	if err := authz.GrantRole(context.Background(), identity.AccountID, authorization.RoleAdmin); err != nil {
		t.Fatalf("grant role: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/accounts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for granted admin, got %d", rec.Code)
	}
}

// The root flag alone does not open root-only objects; the root role
// must be granted too.
func TestRootRouteRequiresRootRole(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	identity := authctx.Identity{AccountID: node.Generate(), Staff: true, Root: true}

	router, authz := newAuthzRouter(t, identity)
	if err := authz.GrantRole(context.Background(), identity.AccountID, authorization.RoleAdmin); err != nil {
		t.Fatalf("grant role: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/audit-events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin role on root object, got %d", rec.Code)
	}

	if err := authz.GrantRole(context.Background(), identity.AccountID, authorization.RoleRoot); err != nil {
		t.Fatalf("grant root role: %v", err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit-events", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for root role, got %d", rec.Code)
	}
}
