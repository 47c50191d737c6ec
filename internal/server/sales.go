package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	salesdomain "github.com/salestrackpro/salestrack/internal/sales/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

func (s *Server) RecordSale(c *gin.Context) {
	var req salesdomain.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salesSvc.RecordSale(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListSales(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ModelID string `form:"model_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salesSvc.ListSales(c.Request.Context(), salesdomain.ListSaleRequest{
		ModelID:   strings.TrimSpace(query.ModelID),
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSale(c *gin.Context) {
	err := s.salesSvc.DeleteSale(c.Request.Context(), salesdomain.DeleteSaleRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DashboardStats(c *gin.Context) {
	resp, err := s.salesSvc.Dashboard(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
