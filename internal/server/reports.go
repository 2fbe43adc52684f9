package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingoverviewdomain "github.com/smallbiznis/garagedesk/internal/billingoverview/domain"
)

// GetRevenueReport sums payments received between start and end, both
// inclusive dates.
func (s *Server) GetRevenueReport(c *gin.Context) {
	start, err := parseOptionalTime(c.Query("start"), false)
	if err != nil {
		AbortWithError(c, newValidationError("start", "invalid_start", "invalid start"))
		return
	}
	end, err := parseOptionalTime(c.Query("end"), false)
	if err != nil {
		AbortWithError(c, newValidationError("end", "invalid_end", "invalid end"))
		return
	}

	resp, err := s.overviewSvc.GetRevenue(c.Request.Context(), billingoverviewdomain.RevenueRequest{
		Start: start,
		End:   end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
