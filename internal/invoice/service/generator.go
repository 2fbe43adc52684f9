package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/garagedesk/internal/audit/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/internal/tax"
	"github.com/smallbiznis/garagedesk/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultDueDays = 30

// errAlreadyInvoiced rolls back the savepoint when another writer
// inserted the invoice first, so the allocated number is not burned.
var errAlreadyInvoiced = errors.New("service already invoiced")

// GenerateTx creates the invoice for a service unless one exists. It runs
// in a savepoint of tx: on failure only the savepoint is rolled back.
func (s *Service) GenerateTx(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) invoicedomain.GenerateResult {
	var result invoicedomain.GenerateResult
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		result, err = s.generate(ctx, sp, serviceID)
		return err
	})
	if errors.Is(err, errAlreadyInvoiced) {
		result, err = s.existing(ctx, tx, serviceID)
	}
	if err != nil {
		result = invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeFailed, Err: err}
		s.log.Warn("invoice generation failed",
			zap.String("service_id", serviceID.String()),
			zap.Error(err),
		)
	}
	s.obsMetrics.RecordInvoiceGeneration(ctx, string(result.Outcome))
	return result
}

func (s *Service) generate(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) (invoicedomain.GenerateResult, error) {
	record, err := s.serviceRepo.FindByIDForUpdate(ctx, tx, serviceID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if record == nil {
		return invoicedomain.GenerateResult{}, invoicedomain.ErrServiceNotFound
	}

	found, err := s.repo.FindByServiceID(ctx, tx, serviceID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if found != nil {
		return s.withItems(ctx, tx, found, invoicedomain.OutcomeExisting)
	}

	settings, err := s.settings.Current(ctx, tx)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}

	now := s.clock.Now()
	alloc, err := s.allocateNumber(ctx, tx, settings.BillingSetting, now)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	rate := alloc.Settings.TaxRate

	amounts, err := tax.Calculate(tax.Input{
		Cost:     record.Cost,
		Included: record.TaxIncluded,
		Rate:     rate,
	})
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}

	customerID, err := s.repo.CustomerOfVehicle(ctx, tx, record.VehicleID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if customerID == 0 {
		return invoicedomain.GenerateResult{}, invoicedomain.ErrVehicleNotFound
	}

	dueDays := alloc.Settings.DueDays
	if dueDays < 1 {
		dueDays = defaultDueDays
	}

	paid := record.AdvancePayment
	balance := amounts.Total.Sub(paid)
	status := invoicedomain.InvoiceStatusSent
	if !balance.IsPositive() {
		status = invoicedomain.InvoiceStatusPaid
	}

	invoice := invoicedomain.Invoice{
		ID:            s.genID.Generate(),
		InvoiceNumber: alloc.Number,
		ServiceID:     record.ID,
		CustomerID:    customerID,
		VehicleID:     record.VehicleID,
		Status:        status,
		IssuedAt:      now,
		DueDate:       now.AddDate(0, 0, dueDays),
		Subtotal:      amounts.Subtotal,
		TaxRate:       rate,
		TaxAmount:     amounts.TaxAmount,
		Discount:      amounts.Discount,
		Total:         amounts.Total,
		PaidAmount:    paid,
		BalanceDue:    balance,
		TaxIncluded:   record.TaxIncluded,
		PaymentTerms:  alloc.Settings.PaymentTerms,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	inserted, err := s.repo.Insert(ctx, tx, &invoice)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invoicedomain.GenerateResult{}, invoicedomain.ErrDuplicateNumber
		}
		return invoicedomain.GenerateResult{}, err
	}
	if !inserted {
		return invoicedomain.GenerateResult{}, errAlreadyInvoiced
	}

	items := []invoicedomain.LineItem{serviceLine(s.genID.Generate(), invoice.ID, record, amounts.Subtotal, now)}
	if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	invoice.Items = items

	if record.AdvancePayment.IsPositive() {
		advance := s.advancePayment(invoice.ID, record, now)
		if err := s.paymentRepo.Insert(ctx, tx, &advance); err != nil {
			return invoicedomain.GenerateResult{}, fmt.Errorf("record advance payment: %w", err)
		}
	}

	rec, err := s.reconciler.ReconcileTx(ctx, tx, invoice.ID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	invoice.PaidAmount = rec.PaidAmount
	invoice.BalanceDue = rec.BalanceDue
	invoice.Status = rec.Status

	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("service_id", record.ID.String()),
		zap.String("total", invoice.Total.String()),
		zap.Bool("default_settings", settings.IsDefault),
	)
	return invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeCreated, Invoice: &invoice}, nil
}

// SyncServiceTx re-derives an existing invoice from its edited service:
// amounts, the service line, the advance payment row and balances. It
// runs in a savepoint of tx. Services without an invoice and canceled
// invoices are skipped.
func (s *Service) SyncServiceTx(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) invoicedomain.GenerateResult {
	var result invoicedomain.GenerateResult
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		result, err = s.syncService(ctx, sp, serviceID)
		return err
	})
	if err != nil {
		s.log.Warn("invoice sync failed",
			zap.String("service_id", serviceID.String()),
			zap.Error(err),
		)
		return invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeFailed, Err: err}
	}
	return result
}

func (s *Service) syncService(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) (invoicedomain.GenerateResult, error) {
	record, err := s.serviceRepo.FindByIDForUpdate(ctx, tx, serviceID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if record == nil {
		return invoicedomain.GenerateResult{}, invoicedomain.ErrServiceNotFound
	}

	found, err := s.repo.FindByServiceID(ctx, tx, serviceID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if found == nil {
		return invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeSkipped}, nil
	}
	invoice, err := s.repo.FindByIDForUpdate(ctx, tx, found.ID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if invoice == nil {
		return invoicedomain.GenerateResult{}, invoicedomain.ErrInvoiceNotFound
	}
	if invoice.Status == invoicedomain.InvoiceStatusCanceled {
		return invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeSkipped, Invoice: invoice}, nil
	}

	now := s.clock.Now()
	if err := s.rederive(invoice, record.Cost, record.TaxIncluded, invoice.Discount, now); err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if err := s.repo.SaveAmounts(ctx, tx, invoice); err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	line := serviceLine(0, invoice.ID, record, invoice.Subtotal, now)
	if err := s.repo.UpdateServiceLine(ctx, tx, invoice.ID, line); err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if err := s.syncAdvancePayment(ctx, tx, invoice.ID, record, now); err != nil {
		return invoicedomain.GenerateResult{}, err
	}

	rec, err := s.reconciler.ReconcileTx(ctx, tx, invoice.ID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	invoice.PaidAmount = rec.PaidAmount
	invoice.BalanceDue = rec.BalanceDue
	invoice.Status = rec.Status

	return s.withItems(ctx, tx, invoice, invoicedomain.OutcomeSynced)
}

// rederive recomputes subtotal, tax and total. The discount only applies
// to tax-exclusive invoices and is dropped otherwise.
func (s *Service) rederive(invoice *invoicedomain.Invoice, cost decimal.Decimal, included bool, discount decimal.Decimal, now time.Time) error {
	if included {
		discount = decimal.Zero
	}
	amounts, err := tax.Calculate(tax.Input{
		Cost:     cost,
		Included: included,
		Rate:     invoice.TaxRate,
		Discount: discount,
	})
	if err != nil {
		return err
	}
	invoice.Subtotal = amounts.Subtotal
	invoice.TaxAmount = amounts.TaxAmount
	invoice.Discount = amounts.Discount
	invoice.Total = amounts.Total
	invoice.TaxIncluded = included
	invoice.BalanceDue = amounts.Total.Sub(invoice.PaidAmount)
	invoice.UpdatedAt = now
	return nil
}

func (s *Service) syncAdvancePayment(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, record *servicedomain.ServiceRecord, now time.Time) error {
	current, err := s.paymentRepo.FindAdvance(ctx, tx, invoiceID)
	if err != nil {
		return err
	}
	switch {
	case current != nil && record.AdvancePayment.IsPositive():
		current.Amount = record.AdvancePayment
		current.Method = advanceMethod(record.AdvancePaymentMethod)
		current.UpdatedAt = now
		return s.paymentRepo.Update(ctx, tx, current)
	case current != nil:
		return s.paymentRepo.Delete(ctx, tx, current.ID)
	case record.AdvancePayment.IsPositive():
		advance := s.advancePayment(invoiceID, record, now)
		return s.paymentRepo.Insert(ctx, tx, &advance)
	}
	return nil
}

func (s *Service) advancePayment(invoiceID snowflake.ID, record *servicedomain.ServiceRecord, now time.Time) paymentdomain.Payment {
	return paymentdomain.Payment{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		Amount:    record.AdvancePayment,
		Method:    advanceMethod(record.AdvancePaymentMethod),
		PaidAt:    datatypes.Date(now),
		Notes:     paymentdomain.AdvancePaymentNote,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func advanceMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if paymentdomain.ValidMethod(method) {
		return method
	}
	return paymentdomain.MethodCash
}

func serviceLine(id, invoiceID snowflake.ID, record *servicedomain.ServiceRecord, subtotal decimal.Decimal, now time.Time) invoicedomain.LineItem {
	return invoicedomain.LineItem{
		ID:          id,
		InvoiceID:   invoiceID,
		Position:    1,
		Description: "Service: " + record.ServiceType,
		Detail:      record.Description,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   subtotal,
		LineTotal:   subtotal,
		Kind:        invoicedomain.LineKindService,
		CreatedAt:   now,
	}
}

func (s *Service) existing(ctx context.Context, tx *gorm.DB, serviceID snowflake.ID) (invoicedomain.GenerateResult, error) {
	found, err := s.repo.FindByServiceID(ctx, tx, serviceID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	if found == nil {
		// MySQL swallows every unique key on DO NOTHING, so the ignored
		// insert collided on the invoice number instead.
		return invoicedomain.GenerateResult{}, invoicedomain.ErrDuplicateNumber
	}
	return s.withItems(ctx, tx, found, invoicedomain.OutcomeExisting)
}

func (s *Service) withItems(ctx context.Context, tx *gorm.DB, invoice *invoicedomain.Invoice, outcome invoicedomain.Outcome) (invoicedomain.GenerateResult, error) {
	items, err := s.repo.ListLineItems(ctx, tx, invoice.ID)
	if err != nil {
		return invoicedomain.GenerateResult{}, err
	}
	invoice.Items = items
	return invoicedomain.GenerateResult{Outcome: outcome, Invoice: invoice}, nil
}

func (s *Service) AfterCommit(ctx context.Context, result invoicedomain.GenerateResult) {
	if result.Invoice == nil {
		return
	}
	var action string
	switch result.Outcome {
	case invoicedomain.OutcomeCreated:
		action = auditdomain.ActionInvoiceGenerated
	case invoicedomain.OutcomeSynced:
		action = auditdomain.ActionInvoiceUpdated
	default:
		return
	}
	inv := result.Invoice
	_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		Action:     action,
		TargetType: "invoice",
		TargetID:   inv.ID.String(),
		Metadata: map[string]any{
			"invoice_number": inv.InvoiceNumber,
			"service_id":     inv.ServiceID.String(),
			"total":          inv.Total.String(),
			"balance_due":    inv.BalanceDue.String(),
			"status":         string(inv.Status),
		},
	})
}
