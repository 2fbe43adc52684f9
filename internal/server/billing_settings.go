package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingsettingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
)

func (s *Server) GetBillingSettings(c *gin.Context) {
	resp, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBillingSettings(c *gin.Context) {
	var req billingsettingdomain.UpdateBillingSettingRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := s.settingsSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
