package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	salesdomain "github.com/salestrackpro/salestrack/internal/sales/domain"
	"github.com/salestrackpro/salestrack/pkg/db/pagination"
)

func (s *Server) CreateModel(c *gin.Context) {
	var req salesdomain.CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salesSvc.CreateModel(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListModels(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.salesSvc.ListModels(c.Request.Context(), salesdomain.ListModelRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetModel(c *gin.Context) {
	resp, err := s.salesSvc.GetModel(c.Request.Context(), salesdomain.GetModelRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateModel(c *gin.Context) {
	var req salesdomain.UpdateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.salesSvc.UpdateModel(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteModel(c *gin.Context) {
	err := s.salesSvc.DeleteModel(c.Request.Context(), salesdomain.DeleteModelRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AttachModelPhoto(c *gin.Context) {
	header, err := c.FormFile("photo")
	if err != nil {
		AbortWithError(c, newValidationError("photo", "required", "photo file is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()

	resp, err := s.salesSvc.AttachPhoto(c.Request.Context(), salesdomain.AttachPhotoRequest{
		ModelID:     strings.TrimSpace(c.Param("id")),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ModelStats(c *gin.Context) {
	resp, err := s.salesSvc.ModelStats(c.Request.Context(), salesdomain.StatsRequest{
		ModelID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ModelReport(c *gin.Context) {
	report, err := s.salesSvc.RenderReport(c.Request.Context(), salesdomain.StatsRequest{
		ModelID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
