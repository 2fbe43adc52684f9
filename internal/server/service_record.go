package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/garagedesk/internal/observability/logger"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"go.uber.org/zap"
)

func (s *Server) CreateService(c *gin.Context) {
	var req servicedomain.CreateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.serviceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondMutation(c, http.StatusCreated, resp)
}

func (s *Server) ListServices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		VehicleID    string `form:"vehicle_id"`
		TechnicianID string `form:"technician_id"`
		CustomerID   string `form:"customer_id"`
		Status       string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.serviceSvc.List(c.Request.Context(), servicedomain.ListServiceRequest{
		PageToken:    query.PageToken,
		PageSize:     int32(query.PageSize),
		VehicleID:    strings.TrimSpace(query.VehicleID),
		TechnicianID: strings.TrimSpace(query.TechnicianID),
		CustomerID:   strings.TrimSpace(query.CustomerID),
		Status:       strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Services, "page_info": resp.PageInfo})
}

func (s *Server) GetServiceByID(c *gin.Context) {
	resp, err := s.serviceSvc.GetByID(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateService(c *gin.Context) {
	var req servicedomain.UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)

	resp, err := s.serviceSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondMutation(c, http.StatusOK, resp)
}

func (s *Server) UpdateServiceStatus(c *gin.Context) {
	var req servicedomain.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)

	resp, err := s.serviceSvc.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.respondMutation(c, http.StatusOK, resp)
}

func (s *Server) DeleteService(c *gin.Context) {
	if err := s.serviceSvc.Delete(c.Request.Context(), pathID(c)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondMutation returns the committed service. A billing failure is
// reported as a warning; the service change itself stands.
func (s *Server) respondMutation(c *gin.Context, status int, resp servicedomain.MutationResult) {
	body := gin.H{"data": resp}
	if resp.Billing.Failed() {
		_, code := classifyErrorForLog(resp.Billing.Err)
		logger.FromContext(c.Request.Context()).Warn("service saved without billing",
			zap.String("service_id", resp.Service.ID.String()),
			zap.Error(resp.Billing.Err),
		)
		body["warnings"] = []gin.H{{
			"type":    "billing_failed",
			"code":    code,
			"message": "service saved but its invoice could not be updated",
		}}
	}
	c.JSON(status, body)
}
