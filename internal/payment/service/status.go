package service

import (
	"time"

	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
)

// DeriveStatus returns the invoice status implied by its balance.
// Canceled invoices never move. A settled invoice is paid; a paid
// invoice that owes money again falls back to sent, or overdue once
// the due date has passed.
func DeriveStatus(current invoicedomain.InvoiceStatus, balance decimal.Decimal, dueDate, now time.Time) invoicedomain.InvoiceStatus {
	if current == invoicedomain.InvoiceStatusCanceled {
		return current
	}
	if !balance.IsPositive() {
		return invoicedomain.InvoiceStatusPaid
	}
	if current == invoicedomain.InvoiceStatusPaid {
		if dueDate.Before(now) {
			return invoicedomain.InvoiceStatusOverdue
		}
		return invoicedomain.InvoiceStatusSent
	}
	return current
}
