package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
)

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		CustomerID string `form:"customer_id"`
		VehicleID  string `form:"vehicle_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Status:     strings.TrimSpace(query.Status),
		CustomerID: strings.TrimSpace(query.CustomerID),
		VehicleID:  strings.TrimSpace(query.VehicleID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := pathID(c)
	c.Set("invoice_id", id)

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type generateInvoiceRequest struct {
	ServiceID string `json:"service_id"`
}

// GenerateInvoice bills a service on demand. Generating for a service that
// already has an invoice returns that invoice.
func (s *Server) GenerateInvoice(c *gin.Context) {
	var req generateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	res := s.invoiceSvc.Generate(c.Request.Context(), strings.TrimSpace(req.ServiceID))
	if res.Failed() {
		AbortWithError(c, res.Err)
		return
	}

	status := http.StatusOK
	if res.Outcome == invoicedomain.OutcomeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": res.Invoice, "outcome": res.Outcome})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoicedomain.UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)
	c.Set("invoice_id", req.ID)

	item, err := s.invoiceSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) SendInvoice(c *gin.Context) {
	id := pathID(c)
	c.Set("invoice_id", id)

	item, err := s.invoiceSvc.Send(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	id := pathID(c)
	c.Set("invoice_id", id)

	item, err := s.invoiceSvc.Cancel(c.Request.Context(), id, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	id := pathID(c)
	c.Set("invoice_id", id)

	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	attachment(c, doc.Filename, doc.Content)
}

func (s *Server) ListInvoicePayments(c *gin.Context) {
	id := pathID(c)
	c.Set("invoice_id", id)

	items, err := s.paymentSvc.ListByInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
