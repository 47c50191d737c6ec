// Package server exposes the HTTP surface: session auth, the admin API,
// the public contact form and the invitation signup flow.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	authdomain "github.com/salestrackpro/salestrack/internal/auth/domain"
	"github.com/salestrackpro/salestrack/internal/auth/session"
	"github.com/salestrackpro/salestrack/internal/authorization"
	"github.com/salestrackpro/salestrack/internal/config"
	contactdomain "github.com/salestrackpro/salestrack/internal/contact/domain"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	obsmetrics "github.com/salestrackpro/salestrack/internal/observability/metrics"
	obstracing "github.com/salestrackpro/salestrack/internal/observability/tracing"
	salesdomain "github.com/salestrackpro/salestrack/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {}),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationMiddleware())
	r.Use(RequestLogMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	sessions      *session.Manager
	authsvc       authdomain.Service
	accountSvc    accountdomain.Service
	invitationSvc invitationdomain.Service
	salesSvc      salesdomain.Service
	contactSvc    contactdomain.Service
	auditSvc      auditdomain.Service
	authz         authorization.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Sessions      *session.Manager
	Authsvc       authdomain.Service
	AccountSvc    accountdomain.Service
	InvitationSvc invitationdomain.Service
	SalesSvc      salesdomain.Service
	ContactSvc    contactdomain.Service
	AuditSvc      auditdomain.Service
	Authz         authorization.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		sessions:      p.Sessions,
		authsvc:       p.Authsvc,
		accountSvc:    p.AccountSvc,
		invitationSvc: p.InvitationSvc,
		salesSvc:      p.SalesSvc,
		contactSvc:    p.ContactSvc,
		auditSvc:      p.AuditSvc,
		authz:         p.Authz,
	}

	svc.registerAuthRoutes()
	svc.registerAdminRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
	auth.POST("/verify-email", s.AuthRequired(), s.RequestEmailVerification)
	auth.POST("/verify-email/confirm", s.AuthRequired(), s.ConfirmEmailVerification)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AuthRequired(), RequireStaff())

	accounts := admin.Group("/accounts")
	{
		accounts.GET("", s.requireAuthorized(authorization.ObjectAccount, authorization.ActionView), s.ListAccounts)
		accounts.POST("", s.requireAuthorized(authorization.ObjectAccount, authorization.ActionCreate), s.CreateAccount)
		accounts.GET("/:id", s.requireAuthorized(authorization.ObjectAccount, authorization.ActionView), s.GetAccount)
		accounts.PATCH("/:id", s.requireAuthorized(authorization.ObjectAccount, authorization.ActionUpdate), s.UpdateAccount)
		accounts.DELETE("/:id", s.requireAuthorized(authorization.ObjectAccount, authorization.ActionDelete), s.DeleteAccount)
	}

	models := admin.Group("/models")
	{
		models.GET("", s.requireAuthorized(authorization.ObjectSalesModel, authorization.ActionView), s.ListModels)
		models.POST("", s.requireAuthorized(authorization.ObjectSalesModel, authorization.ActionCreate), s.CreateModel)
		models.GET("/:id", s.requireAuthorized(authorization.ObjectSalesModel, authorization.ActionView), s.GetModel)
		models.PATCH("/:id", s.requireAuthorized(authorization.ObjectSalesModel, authorization.ActionUpdate), s.UpdateModel)
		models.DELETE("/:id", s.requireAuthorized(authorization.ObjectSalesModel, authorization.ActionDelete), s.DeleteModel)
		models.POST("/:id/photo", s.requireAuthorized(authorization.ObjectSalesModel, authorization.ActionUpdate), s.AttachModelPhoto)
		models.GET("/:id/stats", s.requireAuthorized(authorization.ObjectSaleRecord, authorization.ActionView), s.ModelStats)
		models.GET("/:id/report", s.requireAuthorized(authorization.ObjectSaleRecord, authorization.ActionView), s.ModelReport)
	}

	sales := admin.Group("/sales")
	{
		sales.GET("", s.requireAuthorized(authorization.ObjectSaleRecord, authorization.ActionView), s.ListSales)
		sales.POST("", s.requireAuthorized(authorization.ObjectSaleRecord, authorization.ActionCreate), s.RecordSale)
		sales.DELETE("/:id", s.requireAuthorized(authorization.ObjectSaleRecord, authorization.ActionDelete), s.DeleteSale)
	}

	admin.GET("/stats", s.requireAuthorized(authorization.ObjectSaleRecord, authorization.ActionView), s.DashboardStats)

	invitations := admin.Group("/invitations")
	{
		invitations.GET("", s.requireAuthorized(authorization.ObjectInvitation, authorization.ActionView), s.ListInvitations)
		invitations.POST("", s.requireAuthorized(authorization.ObjectInvitation, authorization.ActionCreate), s.CreateInvitation)
		invitations.POST("/:id/send", s.requireAuthorized(authorization.ObjectInvitation, authorization.ActionSend), s.SendInvitation)
		invitations.POST("/:id/cancel", s.requireAuthorized(authorization.ObjectInvitation, authorization.ActionCancel), s.CancelInvitation)
	}

	contact := admin.Group("/contact-messages", RequireRoot(), s.requireAuthorized(authorization.ObjectContactMessage, authorization.ActionManage))
	{
		contact.GET("", s.ListContactMessages)
		contact.PATCH("/:id/read", s.MarkContactMessageRead)
		contact.DELETE("/:id", s.DeleteContactMessage)
		contact.POST("/:id/invite", s.InviteFromContactMessage)
	}

	admin.GET("/audit-events", RequireRoot(), s.requireAuthorized(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditEvents)
}

func (s *Server) registerPublicRoutes() {
	s.engine.POST("/api/contact", s.CreateContactMessage)

	s.engine.GET("/signup/:token", s.ValidateInvitation)
	s.engine.POST("/signup/:token", s.ConsumeInvitation)
}
