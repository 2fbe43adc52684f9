package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/garagedesk/internal/audit/domain"
	billingdomain "github.com/smallbiznis/garagedesk/internal/billingsetting/domain"
	"github.com/smallbiznis/garagedesk/internal/clock"
	customerdomain "github.com/smallbiznis/garagedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/garagedesk/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/providers/pdf"
	servicedomain "github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	vehicledomain "github.com/smallbiznis/garagedesk/internal/vehicle/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         invoicedomain.Repository
	ServiceRepo  servicedomain.Repository
	PaymentRepo  paymentdomain.Repository
	Reconciler   paymentdomain.Reconciler
	SettingsRepo billingdomain.Repository
	Settings     billingdomain.Provider
	CustomerRepo customerdomain.Repository
	VehicleRepo  vehicledomain.Repository
	AuditSvc     auditdomain.Service
	PDF          pdf.Provider
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo         invoicedomain.Repository
	serviceRepo  servicedomain.Repository
	paymentRepo  paymentdomain.Repository
	reconciler   paymentdomain.Reconciler
	settingsRepo billingdomain.Repository
	settings     billingdomain.Provider
	customerRepo customerdomain.Repository
	vehicleRepo  vehicledomain.Repository
	auditSvc     auditdomain.Service
	pdf          pdf.Provider
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		clock: p.Clock,

		repo:         p.Repo,
		serviceRepo:  p.ServiceRepo,
		paymentRepo:  p.PaymentRepo,
		reconciler:   p.Reconciler,
		settingsRepo: p.SettingsRepo,
		settings:     p.Settings,
		customerRepo: p.CustomerRepo,
		vehicleRepo:  p.VehicleRepo,
		auditSvc:     p.AuditSvc,
		pdf:          p.PDF,
		obsMetrics:   p.ObsMetrics,
	}
}

// Generate invoices a service on demand.
func (s *Service) Generate(ctx context.Context, serviceID string) invoicedomain.GenerateResult {
	id, err := parseID(serviceID)
	if err != nil {
		return invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeFailed, Err: invoicedomain.ErrInvalidServiceID}
	}

	var result invoicedomain.GenerateResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result = s.GenerateTx(ctx, tx, id)
		return nil
	})
	if err != nil {
		return invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeFailed, Err: err}
	}
	s.AfterCommit(ctx, result)
	return result
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}
	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	items, err := s.repo.ListLineItems(ctx, s.db, invoice.ID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice.Items = items
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	var filter invoicedomain.ListFilter
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		filter.Status = invoicedomain.InvoiceStatus(status)
		if !filter.Status.Valid() {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(req.CustomerID) != "" {
		id, err := parseID(req.CustomerID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidCustomer
		}
		filter.CustomerID = id.Int64()
	}
	if strings.TrimSpace(req.VehicleID) != "" {
		id, err := parseID(req.VehicleID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidVehicle
		}
		filter.VehicleID = id.Int64()
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(inv *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// Update edits discount, notes, due date and payment terms. Amounts are
// re-derived from the service cost and the invoice is reconciled.
func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var (
		updated invoicedomain.Invoice
		changes = map[string]any{}
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusCanceled {
			return invoicedomain.ErrInvoiceCanceled
		}
		record, err := s.serviceRepo.FindByID(ctx, tx, invoice.ServiceID)
		if err != nil {
			return err
		}
		if record == nil {
			return invoicedomain.ErrServiceNotFound
		}

		now := s.clock.Now()
		discount := invoice.Discount
		if req.Discount != nil {
			if record.TaxIncluded && !req.Discount.IsZero() {
				return invoicedomain.ErrDiscountNotAllowed
			}
			discount = *req.Discount
			changes["discount"] = discount.String()
		}
		if req.Notes != nil {
			invoice.Notes = strings.TrimSpace(*req.Notes)
			changes["notes"] = invoice.Notes
		}
		if req.PaymentTerms != nil {
			terms := strings.TrimSpace(*req.PaymentTerms)
			if terms == "" {
				return invoicedomain.ErrInvalidPaymentTerms
			}
			invoice.PaymentTerms = terms
			changes["payment_terms"] = terms
		}
		if req.DueDate != nil {
			if req.DueDate.IsZero() || req.DueDate.Before(invoice.IssuedAt.Truncate(24*time.Hour)) {
				return invoicedomain.ErrInvalidDueDate
			}
			invoice.DueDate = req.DueDate.UTC()
			changes["due_date"] = invoice.DueDate.Format(time.DateOnly)
			if invoice.Status == invoicedomain.InvoiceStatusOverdue && !invoice.DueDate.Before(now) {
				invoice.Status = invoicedomain.InvoiceStatusSent
			}
		}

		if err := s.rederive(invoice, record.Cost, record.TaxIncluded, discount, now); err != nil {
			return err
		}
		if err := s.repo.SaveAmounts(ctx, tx, invoice); err != nil {
			return err
		}
		rec, err := s.reconciler.ReconcileTx(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		invoice.PaidAmount = rec.PaidAmount
		invoice.BalanceDue = rec.BalanceDue
		invoice.Status = rec.Status

		items, err := s.repo.ListLineItems(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		invoice.Items = items
		updated = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if len(changes) > 0 {
		changes["total"] = updated.Total.String()
		changes["balance_due"] = updated.BalanceDue.String()
		s.audit(ctx, auditdomain.ActionInvoiceUpdated, &updated, changes)
	}
	return updated, nil
}

// Send moves a draft invoice to sent.
func (s *Service) Send(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	invoice, err := s.transition(ctx, id, func(inv *invoicedomain.Invoice) error {
		if inv.Status != invoicedomain.InvoiceStatusDraft {
			return invoicedomain.ErrInvoiceNotDraft
		}
		inv.Status = invoicedomain.InvoiceStatusSent
		if !inv.BalanceDue.IsPositive() {
			inv.Status = invoicedomain.InvoiceStatusPaid
		}
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	s.audit(ctx, auditdomain.ActionInvoiceSent, &invoice, nil)
	return invoice, nil
}

// Cancel voids any invoice that is not paid. Canceled invoices keep their
// payments but are no longer reconciled into a new status.
func (s *Service) Cancel(ctx context.Context, id string, reason string) (invoicedomain.Invoice, error) {
	reason = strings.TrimSpace(reason)
	invoice, err := s.transition(ctx, id, func(inv *invoicedomain.Invoice) error {
		switch inv.Status {
		case invoicedomain.InvoiceStatusPaid:
			return invoicedomain.ErrInvoicePaid
		case invoicedomain.InvoiceStatusCanceled:
			return invoicedomain.ErrInvoiceCanceled
		}
		inv.Status = invoicedomain.InvoiceStatusCanceled
		if reason != "" {
			inv.Notes = strings.TrimSpace(strings.TrimSpace(inv.Notes) + "\nCanceled: " + reason)
		}
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	s.audit(ctx, auditdomain.ActionInvoiceCanceled, &invoice, map[string]any{"reason": reason})
	s.log.Info("invoice canceled",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	return invoice, nil
}

func (s *Service) transition(ctx context.Context, id string, apply func(*invoicedomain.Invoice) error) (invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var out invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if err := apply(invoice); err != nil {
			return err
		}
		invoice.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveAmounts(ctx, tx, invoice); err != nil {
			return err
		}
		out = *invoice
		return nil
	})
	return out, err
}

// MarkOverdue flags sent invoices with a balance whose due date has passed.
func (s *Service) MarkOverdue(ctx context.Context, limit int) (int, error) {
	now := s.clock.Now()
	candidates, err := s.repo.ListOverdueCandidates(ctx, s.db, now, limit)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]snowflake.ID, 0, len(candidates))
	numbers := make([]string, 0, len(candidates))
	for _, inv := range candidates {
		ids = append(ids, inv.ID)
		numbers = append(numbers, inv.InvoiceNumber)
	}

	var marked int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		marked, err = s.repo.MarkOverdue(ctx, tx, ids, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	if marked > 0 {
		s.obsMetrics.RecordOverdue(ctx, int(marked))
		_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
			ActorType:  string(auditdomain.ActorTypeSystem),
			Action:     auditdomain.ActionInvoicesMarkedOverdue,
			TargetType: "invoice",
			Metadata: map[string]any{
				"count":           marked,
				"invoice_numbers": numbers,
			},
		})
		s.log.Info("invoices marked overdue", zap.Int64("count", marked))
	}
	return int(marked), nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) (invoicedomain.Document, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	settings, err := s.settings.Current(ctx, s.db)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	customer, err := s.customerRepo.FindByID(ctx, s.db, invoice.CustomerID)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	vehicle, err := s.vehicleRepo.FindByID(ctx, s.db, invoice.VehicleID)
	if err != nil {
		return invoicedomain.Document{}, err
	}

	content, err := s.pdf.RenderInvoice(ctx, buildInvoiceData(invoice, settings.BillingSetting, customer, vehicle))
	if err != nil {
		return invoicedomain.Document{}, fmt.Errorf("render invoice: %w", err)
	}
	return invoicedomain.Document{
		Filename: fmt.Sprintf("invoice-%s.pdf", invoice.InvoiceNumber),
		Content:  content,
	}, nil
}

func buildInvoiceData(inv invoicedomain.Invoice, settings billingdomain.BillingSetting, customer *customerdomain.Customer, vehicle *vehicledomain.Vehicle) pdf.InvoiceData {
	data := pdf.InvoiceData{
		Company: pdf.Party{
			Name:  settings.CompanyName,
			Lines: []string{settings.CompanyAddress, settings.CompanyCity},
			Phone: settings.CompanyPhone,
			Email: settings.CompanyEmail,
		},
		InvoiceNumber: inv.InvoiceNumber,
		Status:        string(inv.Status),
		IssueDate:     inv.IssuedAt.Format(time.DateOnly),
		DueDate:       inv.DueDate.Format(time.DateOnly),
		PaymentTerms:  inv.PaymentTerms,
		Notes:         inv.Notes,
		Subtotal:      inv.Subtotal.StringFixed(2),
		TaxLabel:      taxLabel(inv),
		TaxAmount:     inv.TaxAmount.StringFixed(2),
		Total:         inv.Total.StringFixed(2),
		PaidAmount:    inv.PaidAmount.StringFixed(2),
		BalanceDue:    inv.BalanceDue.StringFixed(2),
	}
	if inv.Discount.IsPositive() {
		data.Discount = inv.Discount.StringFixed(2)
	}
	if customer != nil {
		data.BillTo = pdf.Party{
			Name:  customer.Name,
			Lines: []string{customer.Address},
			Email: customer.Email,
			Phone: customer.Phone,
		}
	}
	if vehicle != nil {
		data.Vehicle = fmt.Sprintf("%s %s (%s)", vehicle.Brand, vehicle.Model, vehicle.PlateNumber)
	}
	for _, item := range inv.Items {
		data.Lines = append(data.Lines, pdf.Line{
			Description: item.Description,
			Detail:      item.Detail,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.LineTotal.StringFixed(2),
		})
	}
	return data
}

func taxLabel(inv invoicedomain.Invoice) string {
	pct := inv.TaxRate.Shift(2).String() + "%"
	if inv.TaxIncluded {
		return "Tax " + pct + " (included)"
	}
	return "Tax " + pct
}

func (s *Service) audit(ctx context.Context, action string, inv *invoicedomain.Invoice, extra map[string]any) {
	metadata := map[string]any{
		"invoice_number": inv.InvoiceNumber,
		"status":         string(inv.Status),
	}
	for k, v := range extra {
		metadata[k] = v
	}
	_ = s.auditSvc.AuditLog(ctx, auditdomain.Entry{
		Action:     action,
		TargetType: "invoice",
		TargetID:   inv.ID.String(),
		Metadata:   metadata,
	})
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
