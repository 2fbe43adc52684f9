package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderInvoice(t *testing.T) {
	p := New()
	doc, err := p.RenderInvoice(context.Background(), InvoiceData{
		Company:       Party{Name: "Northside Motors", Lines: []string{"1 High St", "Leeds"}, Phone: "0113 000"},
		BillTo:        Party{Name: "Ada Driver", Email: "ada@example.com"},
		Vehicle:       "Toyota Corolla (AB12 CDE)",
		InvoiceNumber: "INV-1001",
		Status:        "sent",
		IssueDate:     "2026-03-01",
		DueDate:       "2026-03-31",
		PaymentTerms:  "Net 30",
		Lines: []Line{{
			Description: "Service: Oil change",
			Detail:      "Full synthetic",
			Quantity:    "1",
			UnitPrice:   "85.00",
			Amount:      "85.00",
		}},
		Subtotal:   "85.00",
		TaxLabel:   "Tax (10%)",
		TaxAmount:  "8.50",
		Total:      "93.50",
		PaidAmount: "0.00",
		BalanceDue: "93.50",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderReceipt(t *testing.T) {
	p := New()
	doc, err := p.RenderReceipt(context.Background(), ReceiptData{
		Company:       Party{Name: "Northside Motors"},
		BillTo:        Party{Name: "Ada Driver"},
		ReceiptNumber: "1234",
		InvoiceNumber: "INV-1001",
		DatePaid:      "2026-03-02",
		Method:        "card",
		Amount:        "93.50",
		InvoiceTotal:  "93.50",
		BalanceDue:    "0.00",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderRequiresNumber(t *testing.T) {
	p := New()
	_, err := p.RenderInvoice(context.Background(), InvoiceData{})
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = p.RenderReceipt(context.Background(), ReceiptData{})
	assert.ErrorIs(t, err, ErrEmptyDocument)
}
