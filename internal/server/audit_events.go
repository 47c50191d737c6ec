package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/salestrackpro/salestrack/internal/audit/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

func (s *Server) ListAuditEvents(c *gin.Context) {
	var query struct {
		pagination.Pagination
		EventType string `form:"event_type"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListEventRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		EventType: strings.TrimSpace(query.EventType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
