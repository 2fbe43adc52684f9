package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/garagedesk/internal/audit/domain"
	billingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	"github.com/smallbiznis/garagedesk/internal/clock"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/garagedesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         paymentdomain.Repository
	InvoiceRepo  invoicedomain.Repository
	CustomerRepo customerdomain.Repository
	Reconciler   paymentdomain.Reconciler
	Settings     billingdomain.Provider
	AuditSvc     auditdomain.Service
	PDF          pdf.Provider
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         paymentdomain.Repository
	invoiceRepo  invoicedomain.Repository
	customerRepo customerdomain.Repository
	reconciler   paymentdomain.Reconciler
	settings     billingdomain.Provider
	auditSvc     auditdomain.Service
	pdf          pdf.Provider
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		invoiceRepo:  p.InvoiceRepo,
		customerRepo: p.CustomerRepo,
		reconciler:   p.Reconciler,
		settings:     p.Settings,
		auditSvc:     p.AuditSvc,
		pdf:          p.PDF,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Service) Record(ctx context.Context, req paymentdomain.CreatePaymentRequest) (paymentdomain.PaymentResult, error) {
	invoiceID, err := parseID(req.InvoiceID)
	if err != nil {
		return paymentdomain.PaymentResult{}, paymentdomain.ErrInvalidInvoiceID
	}
	if err := validateAmount(req.Amount); err != nil {
		return paymentdomain.PaymentResult{}, err
	}
	method := normalizeMethod(req.Method)
	if !paymentdomain.ValidMethod(method) {
		return paymentdomain.PaymentResult{}, paymentdomain.ErrInvalidMethod
	}
	notes := strings.TrimSpace(req.Notes)
	if notes == paymentdomain.AdvancePaymentNote {
		return paymentdomain.PaymentResult{}, paymentdomain.ErrReservedNote
	}

	now := s.clock.Now()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment := paymentdomain.Payment{
		ID:        s.genID.Generate(),
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Method:    method,
		PaidAt:    datatypes.Date(paidAt),
		Reference: strings.TrimSpace(req.Reference),
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var rec paymentdomain.Reconciliation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockPayableInvoice(ctx, tx, invoiceID); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}
		rec, err = s.reconciler.ReconcileTx(ctx, tx, invoiceID)
		return err
	})
	if err != nil {
		return paymentdomain.PaymentResult{}, err
	}

	s.obsMetrics.RecordPaymentEvent(ctx, method, "recorded")
	_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionPaymentRecorded,
		TargetType: "payment",
		TargetID:   payment.ID.String(),
		Metadata: map[string]any{
			"invoice_id":  invoiceID.String(),
			"amount":      payment.Amount.String(),
			"method":      method,
			"reference":   payment.Reference,
			"balance_due": rec.BalanceDue.String(),
			"status":      string(rec.Status),
		},
	})
	s.log.Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("invoice_id", invoiceID.String()),
		zap.String("status", string(rec.Status)),
	)

	return paymentdomain.PaymentResult{Payment: payment, Reconciliation: rec}, nil
}

func (s *Service) Update(ctx context.Context, req paymentdomain.UpdatePaymentRequest) (paymentdomain.PaymentResult, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return paymentdomain.PaymentResult{}, paymentdomain.ErrInvalidPaymentID
	}

	var (
		payment paymentdomain.Payment
		rec     paymentdomain.Reconciliation
		changes = map[string]any{}
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if current.IsAdvance() {
			return paymentdomain.ErrAdvancePaymentRow
		}
		if _, err := s.lockPayableInvoice(ctx, tx, current.InvoiceID); err != nil {
			return err
		}

		payment = *current
		if err := applyUpdate(&payment, req, changes); err != nil {
			return err
		}
		payment.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, &payment); err != nil {
			return err
		}
		rec, err = s.reconciler.ReconcileTx(ctx, tx, payment.InvoiceID)
		return err
	})
	if err != nil {
		return paymentdomain.PaymentResult{}, err
	}

	if len(changes) > 0 {
		changes["invoice_id"] = payment.InvoiceID.String()
		_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
			Action:     auditdomain.ActionPaymentUpdated,
			TargetType: "payment",
			TargetID:   payment.ID.String(),
			Metadata:   changes,
		})
	}
	return paymentdomain.PaymentResult{Payment: payment, Reconciliation: rec}, nil
}

func (s *Service) Delete(ctx context.Context, id string) (paymentdomain.Reconciliation, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Reconciliation{}, paymentdomain.ErrInvalidPaymentID
	}

	var (
		deleted paymentdomain.Payment
		rec     paymentdomain.Reconciliation
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if current == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if current.IsAdvance() {
			return paymentdomain.ErrAdvancePaymentRow
		}
		invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, current.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return paymentdomain.ErrInvoiceNotFound
		}
		if err := s.repo.Delete(ctx, tx, current.ID); err != nil {
			return err
		}
		deleted = *current
		rec, err = s.reconciler.ReconcileTx(ctx, tx, current.InvoiceID)
		return err
	})
	if err != nil {
		return paymentdomain.Reconciliation{}, err
	}

	_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		Action:     auditdomain.ActionPaymentDeleted,
		TargetType: "payment",
		TargetID:   deleted.ID.String(),
		Metadata: map[string]any{
			"invoice_id":  deleted.InvoiceID.String(),
			"amount":      deleted.Amount.String(),
			"balance_due": rec.BalanceDue.String(),
			"status":      string(rec.Status),
		},
	})
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (paymentdomain.Payment, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidPaymentID
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	return *payment, nil
}

func (s *Service) ListByInvoice(ctx context.Context, invoiceID string) ([]paymentdomain.Payment, error) {
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, paymentdomain.ErrInvalidInvoiceID
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, paymentdomain.ErrInvoiceNotFound
	}
	payments, err := s.repo.ListByInvoice(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []paymentdomain.Payment{}
	}
	return payments, nil
}

func (s *Service) Receipt(ctx context.Context, id string) (paymentdomain.Receipt, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, payment.InvoiceID)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	if invoice == nil {
		return paymentdomain.Receipt{}, paymentdomain.ErrInvoiceNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, s.db, invoice.CustomerID)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	settings, err := s.settings.Current(ctx, s.db)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}

	data := pdf.ReceiptData{
		Company: pdf.Party{
			Name:  settings.CompanyName,
			Lines: []string{settings.CompanyAddress, settings.CompanyCity},
			Phone: settings.CompanyPhone,
			Email: settings.CompanyEmail,
		},
		ReceiptNumber: payment.ID.String(),
		InvoiceNumber: invoice.InvoiceNumber,
		DatePaid:      time.Time(payment.PaidAt).Format(time.DateOnly),
		Method:        methodLabel(payment.Method),
		Reference:     payment.Reference,
		Amount:        payment.Amount.StringFixed(2),
		InvoiceTotal:  invoice.Total.StringFixed(2),
		BalanceDue:    invoice.BalanceDue.StringFixed(2),
	}
	if customer != nil {
		data.BillTo = pdf.Party{Name: customer.Name, Lines: []string{customer.Address}, Email: customer.Email}
	}

	content, err := s.pdf.RenderReceipt(ctx, data)
	if err != nil {
		return paymentdomain.Receipt{}, fmt.Errorf("render receipt: %w", err)
	}
	return paymentdomain.Receipt{
		Filename: fmt.Sprintf("receipt-%s-%s.pdf", invoice.InvoiceNumber, payment.ID.String()),
		Content:  content,
	}, nil
}

func (s *Service) lockPayableInvoice(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, paymentdomain.ErrInvoiceNotFound
	}
	if invoice.Status == invoicedomain.InvoiceStatusCanceled {
		return nil, paymentdomain.ErrInvoiceCanceled
	}
	return invoice, nil
}

func applyUpdate(p *paymentdomain.Payment, req paymentdomain.UpdatePaymentRequest, changes map[string]any) error {
	if req.Amount != nil {
		if err := validateAmount(*req.Amount); err != nil {
			return err
		}
		p.Amount = *req.Amount
		changes["amount"] = p.Amount.String()
	}
	if req.Method != nil {
		method := normalizeMethod(*req.Method)
		if !paymentdomain.ValidMethod(method) {
			return paymentdomain.ErrInvalidMethod
		}
		p.Method = method
		changes["method"] = method
	}
	if req.PaidAt != nil {
		p.PaidAt = datatypes.Date(*req.PaidAt)
		changes["paid_at"] = req.PaidAt.Format(time.DateOnly)
	}
	if req.Reference != nil {
		p.Reference = strings.TrimSpace(*req.Reference)
		changes["reference"] = p.Reference
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if notes == paymentdomain.AdvancePaymentNote {
			return paymentdomain.ErrReservedNote
		}
		p.Notes = notes
		changes["notes"] = notes
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return paymentdomain.ErrInvalidAmount
	}
	return nil
}

func normalizeMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	return strings.ReplaceAll(method, " ", "_")
}

func methodLabel(method string) string {
	switch method {
	case paymentdomain.MethodBankTransfer:
		return "Bank transfer"
	case paymentdomain.MethodCard:
		return "Card"
	case paymentdomain.MethodCheck:
		return "Check"
	default:
		return "Cash"
	}
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
