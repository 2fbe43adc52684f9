package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/internal/clock"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/garagedesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReconcilerParams struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	Repo        paymentdomain.Repository
	InvoiceRepo invoicedomain.Repository
	ServiceRepo servicedomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type reconciler struct {
	log         *zap.Logger
	clock       clock.Clock
	repo        paymentdomain.Repository
	invoiceRepo invoicedomain.Repository
	serviceRepo servicedomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func NewReconciler(p ReconcilerParams) paymentdomain.Reconciler {
	return &reconciler{
		log:         p.Log.Named("payment.reconciler"),
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		serviceRepo: p.ServiceRepo,
		obsMetrics:  p.ObsMetrics,
	}
}

func (r *reconciler) ReconcileTx(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (paymentdomain.Reconciliation, error) {
	invoice, err := r.invoiceRepo.FindByIDForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return paymentdomain.Reconciliation{}, err
	}
	if invoice == nil {
		return paymentdomain.Reconciliation{}, paymentdomain.ErrInvoiceNotFound
	}

	payments, err := r.repo.ListByInvoice(ctx, tx, invoice.ID)
	if err != nil {
		return paymentdomain.Reconciliation{}, err
	}

	paid := SumAmounts(payments)
	balance := invoice.Total.Sub(paid)
	now := r.clock.Now()
	next := DeriveStatus(invoice.Status, balance, invoice.DueDate, now)

	result := paymentdomain.Reconciliation{
		InvoiceID:     invoice.ID,
		PaidAmount:    paid,
		BalanceDue:    balance,
		Status:        next,
		StatusChanged: next != invoice.Status,
	}

	invoice.PaidAmount = paid
	invoice.BalanceDue = balance
	invoice.Status = next
	invoice.UpdatedAt = now
	if err := r.invoiceRepo.UpdateBalances(ctx, tx, invoice); err != nil {
		return paymentdomain.Reconciliation{}, fmt.Errorf("update invoice balances: %w", err)
	}
	if err := r.serviceRepo.UpdateRemainingBalance(ctx, tx, invoice.ServiceID, balance); err != nil {
		return paymentdomain.Reconciliation{}, fmt.Errorf("mirror service balance: %w", err)
	}

	if result.StatusChanged {
		r.log.Debug("invoice status reconciled",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("status", string(next)),
			zap.String("balance_due", balance.String()),
		)
	}
	r.obsMetrics.RecordReconciliation(ctx, string(next))

	return result, nil
}

// SumAmounts adds payment amounts exactly.
func SumAmounts(payments []paymentdomain.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
