package server

import (
	"github.com/gin-gonic/gin"
	"github.com/salestrackpro/salestrack/internal/authctx"
)

// requireAuthorized checks the role policy for the authenticated account
// before the handler runs. The identity flags (staff, root) are a coarse
// first gate; this consults the seeded object/action matrix, so an
// account whose roles were revoked is denied even while its flags would
// admit it. Ownership scoping inside the services still narrows which
// rows the action may touch.
func (s *Server) requireAuthorized(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authctx.IdentityFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authz.Authorize(c.Request.Context(), identity.AccountID, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
