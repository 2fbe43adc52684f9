// Package pdf renders invoices and payment receipts with maroto.
package pdf

import (
	"context"
	"errors"
)

// Party is a name and address block printed on a document.
type Party struct {
	Name    string
	Lines   []string
	Email   string
	Phone   string
}

type Line struct {
	Description string
	Detail      string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// InvoiceData holds preformatted values. Amounts are already rendered
// with two decimal places.
type InvoiceData struct {
	Company       Party
	BillTo        Party
	Vehicle       string
	InvoiceNumber string
	Status        string
	IssueDate     string
	DueDate       string
	PaymentTerms  string
	Notes         string

	Lines []Line

	Subtotal   string
	Discount   string
	TaxLabel   string
	TaxAmount  string
	Total      string
	PaidAmount string
	BalanceDue string
}

type ReceiptData struct {
	Company       Party
	BillTo        Party
	ReceiptNumber string
	InvoiceNumber string
	DatePaid      string
	Method        string
	Reference     string
	Amount        string
	InvoiceTotal  string
	BalanceDue    string
}

type Provider interface {
	RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
	RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

var ErrEmptyDocument = errors.New("pdf: document number is empty")
