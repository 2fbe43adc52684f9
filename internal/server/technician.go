package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	techniciandomain "github.com/smallbiznis/garagedesk/internal/technician/domain"
)

func (s *Server) CreateTechnician(c *gin.Context) {
	var req techniciandomain.CreateTechnicianRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.technicianSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTechnicians(c *gin.Context) {
	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	req := techniciandomain.ListTechnicianRequest{}
	if activeOnly != nil {
		req.ActiveOnly = *activeOnly
	}
	resp, err := s.technicianSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTechnicianByID(c *gin.Context) {
	resp, err := s.technicianSvc.GetByID(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTechnician(c *gin.Context) {
	var req techniciandomain.UpdateTechnicianRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)

	resp, err := s.technicianSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTechnician(c *gin.Context) {
	if err := s.technicianSvc.Delete(c.Request.Context(), pathID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
