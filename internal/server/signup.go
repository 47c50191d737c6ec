package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
)

// ValidateInvitation is the public signup-page lookup: it reports the
// invitation summary without mutating any state.
func (s *Server) ValidateInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrNotFound)
		return
	}

	summary, err := s.invitationSvc.Validate(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) ConsumeInvitation(c *gin.Context) {
	var req invitationdomain.ConsumeInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Token = strings.TrimSpace(c.Param("token"))
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	account, err := s.invitationSvc.Consume(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": account})
}
