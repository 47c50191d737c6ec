package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	contactdomain "github.com/salestrackpro/salestrack/internal/contact/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

func (s *Server) CreateContactMessage(c *gin.Context) {
	var req contactdomain.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListContactMessages(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Unread string `form:"unread"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	unread, err := parseOptionalBool(query.Unread)
	if err != nil {
		AbortWithError(c, newValidationError("unread", "invalid_unread", "invalid unread"))
		return
	}

	resp, err := s.contactSvc.List(c.Request.Context(), contactdomain.ListMessageRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Unread:    unread,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkContactMessageRead(c *gin.Context) {
	resp, err := s.contactSvc.MarkRead(c.Request.Context(), contactdomain.MarkReadRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteContactMessage(c *gin.Context) {
	err := s.contactSvc.Delete(c.Request.Context(), contactdomain.DeleteMessageRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) InviteFromContactMessage(c *gin.Context) {
	resp, err := s.contactSvc.Invite(c.Request.Context(), contactdomain.InviteFromMessageRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
