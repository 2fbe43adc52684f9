package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
)

func (s *Server) RecordPayment(c *gin.Context) {
	var req paymentdomain.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set("invoice_id", strings.TrimSpace(req.InvoiceID))

	resp, err := s.paymentSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// ListPayments lists the payments of the invoice named by invoice_id.
func (s *Server) ListPayments(c *gin.Context) {
	invoiceID := strings.TrimSpace(c.Query("invoice_id"))
	if invoiceID == "" {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invoice_id is required"))
		return
	}

	items, err := s.paymentSvc.ListByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	item, err := s.paymentSvc.Get(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdatePayment(c *gin.Context) {
	var req paymentdomain.UpdatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = pathID(c)

	resp, err := s.paymentSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePayment(c *gin.Context) {
	resp, err := s.paymentSvc.Delete(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderPaymentReceipt(c *gin.Context) {
	receipt, err := s.paymentSvc.Receipt(c.Request.Context(), pathID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	attachment(c, receipt.Filename, receipt.Content)
}
