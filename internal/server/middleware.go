package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salestrackpro/salestrack/internal/authctx"
	"github.com/salestrackpro/salestrack/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

// CorrelationMiddleware propagates or generates the request correlation
// ID and echoes it back in the response header.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := strings.TrimSpace(c.GetHeader(correlation.Header)); incoming != "" {
			ctx = correlation.ContextWithCorrelationID(ctx, incoming)
		}
		ctx, cid := correlation.EnsureCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.Header, cid)
		c.Next()
	}
}

// RequestLogMiddleware writes one structured access log line per request.
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	accessLog := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if cid := correlation.ExtractCorrelationID(c.Request.Context()); cid != "" {
			fields = append(fields, zap.String("correlation_id", cid))
		}
		if lastErr := c.Errors.Last(); lastErr != nil {
			fields = append(fields, zap.Error(lastErr.Err))
		}

		if c.Writer.Status() >= 500 {
			accessLog.Error("request", fields...)
			return
		}
		accessLog.Info("request", fields...)
	}
}

// AuthRequired resolves the session cookie into an Identity and stores
// it on the request context for the service layer.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		account, _, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		identity := authctx.Identity{
			AccountID: account.ID,
			Email:     account.Email,
			Staff:     account.IsStaff,
			Superuser: account.IsSuperuser,
			Root:      account.IsRoot,
		}
		c.Request = c.Request.WithContext(authctx.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequireStaff gates the admin surface.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authctx.IdentityFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !identity.Staff {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireRoot gates the root-only surface.
func RequireRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authctx.IdentityFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !identity.Root {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}
