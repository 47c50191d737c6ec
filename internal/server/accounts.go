package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/salestrackpro/salestrack/internal/account/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

func (s *Server) CreateAccount(c *gin.Context) {
	var req accountdomain.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.accountSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListAccounts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Email string `form:"email"`
		Staff string `form:"staff"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	staff, err := parseOptionalBool(query.Staff)
	if err != nil {
		AbortWithError(c, newValidationError("staff", "invalid_staff", "invalid staff"))
		return
	}

	resp, err := s.accountSvc.List(c.Request.Context(), accountdomain.ListAccountRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		Email:     strings.TrimSpace(query.Email),
		Staff:     staff,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAccount(c *gin.Context) {
	resp, err := s.accountSvc.GetByID(c.Request.Context(), accountdomain.GetAccountRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAccount(c *gin.Context) {
	var req accountdomain.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.accountSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAccount(c *gin.Context) {
	err := s.accountSvc.Delete(c.Request.Context(), accountdomain.DeleteAccountRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
