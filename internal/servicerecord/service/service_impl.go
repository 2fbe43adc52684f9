package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/garagedesk/internal/clock"
	invoicedomain "github.com/smallbiznis/garagedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/garagedesk/internal/payment/domain"
	"github.com/smallbiznis/garagedesk/internal/servicerecord/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Generator invoicedomain.Generator
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	generator invoicedomain.Generator
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("servicerecord.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		generator: p.Generator,
	}
}

// Create stores a service. A service with an advance payment, or one
// that is already completed, is invoiced straight away.
func (s *Service) Create(ctx context.Context, req domain.CreateServiceRequest) (domain.MutationResult, error) {
	vehicleID, err := parseID(req.VehicleID)
	if err != nil || vehicleID == 0 {
		return domain.MutationResult{}, domain.ErrInvalidVehicle
	}
	technicianID, err := parseOptionalID(req.TechnicianID)
	if err != nil {
		return domain.MutationResult{}, domain.ErrInvalidTechnician
	}

	now := s.clock.Now()
	serviceDate := now
	if req.ServiceDate != nil {
		serviceDate = *req.ServiceDate
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = domain.StatusPending
	}

	record := domain.ServiceRecord{
		ID:                   s.genID.Generate(),
		VehicleID:            vehicleID,
		TechnicianID:         technicianID,
		ServiceType:          strings.TrimSpace(req.Type),
		Description:          strings.TrimSpace(req.Description),
		ServiceDate:          datatypes.Date(serviceDate),
		Cost:                 req.Cost,
		TaxIncluded:          req.TaxIncluded,
		AdvancePayment:       req.AdvancePayment,
		AdvancePaymentMethod: normalizeMethod(req.AdvancePaymentMethod),
		Status:               status,
		EstimatedHours:       req.EstimatedHours,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := validate(record); err != nil {
		return domain.MutationResult{}, err
	}
	record.RemainingBalance = record.Cost.Sub(record.AdvancePayment)

	var billing invoicedomain.GenerateResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureReferences(ctx, tx, record, nil); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &record); err != nil {
			return err
		}

		billing = invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeSkipped}
		if record.AdvancePayment.IsPositive() || record.Status == domain.StatusCompleted {
			billing = s.generator.GenerateTx(ctx, tx, record.ID)
		}
		return s.reload(ctx, tx, &record, billing)
	})
	if err != nil {
		return domain.MutationResult{}, err
	}

	s.afterCommit(ctx, record, billing)
	return domain.MutationResult{Service: record, Billing: billing}, nil
}

// Update applies the set fields. A service that becomes completed is
// invoiced; an invoiced service has its invoice re-derived.
func (s *Service) Update(ctx context.Context, req domain.UpdateServiceRequest) (domain.MutationResult, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.MutationResult{}, domain.ErrInvalidID
	}

	var (
		record  domain.ServiceRecord
		billing invoicedomain.GenerateResult
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		next := *current
		if err := applyUpdate(&next, req); err != nil {
			return err
		}
		if err := validate(next); err != nil {
			return err
		}
		if err := s.ensureReferences(ctx, tx, next, current); err != nil {
			return err
		}
		next.RemainingBalance = next.Cost.Sub(next.AdvancePayment)
		next.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, &next); err != nil {
			return err
		}

		invoiced, err := s.repo.HasInvoice(ctx, tx, next.ID)
		if err != nil {
			return err
		}
		switch {
		case invoiced:
			billing = s.generator.SyncServiceTx(ctx, tx, next.ID)
		case next.Status == domain.StatusCompleted:
			billing = s.generator.GenerateTx(ctx, tx, next.ID)
		default:
			billing = invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeSkipped}
		}

		record = next
		return s.reload(ctx, tx, &record, billing)
	})
	if err != nil {
		return domain.MutationResult{}, err
	}

	s.afterCommit(ctx, record, billing)
	return domain.MutationResult{Service: record, Billing: billing}, nil
}

// UpdateStatus sets the status directly. Completing a service invoices it.
func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (domain.MutationResult, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.MutationResult{}, domain.ErrInvalidID
	}
	status := strings.TrimSpace(req.Status)
	if !domain.ValidStatus(status) {
		return domain.MutationResult{}, domain.ErrInvalidStatus
	}

	var (
		record  domain.ServiceRecord
		billing = invoicedomain.GenerateResult{Outcome: invoicedomain.OutcomeSkipped}
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		record = *current
		record.Status = status
		record.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, &record); err != nil {
			return err
		}
		if status == domain.StatusCompleted {
			billing = s.generator.GenerateTx(ctx, tx, record.ID)
		}
		return s.reload(ctx, tx, &record, billing)
	})
	if err != nil {
		return domain.MutationResult{}, err
	}

	s.afterCommit(ctx, record, billing)
	return domain.MutationResult{Service: record, Billing: billing}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	serviceID, err := parseID(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, serviceID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		invoiced, err := s.repo.HasInvoice(ctx, tx, serviceID)
		if err != nil {
			return err
		}
		if invoiced {
			return domain.ErrHasInvoice
		}
		return s.repo.Delete(ctx, tx, serviceID)
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.ServiceRecord, error) {
	serviceID, err := parseID(id)
	if err != nil {
		return domain.ServiceRecord{}, domain.ErrInvalidID
	}
	record, err := s.repo.FindByID(ctx, s.db, serviceID)
	if err != nil {
		return domain.ServiceRecord{}, err
	}
	if record == nil {
		return domain.ServiceRecord{}, domain.ErrNotFound
	}
	return *record, nil
}

func (s *Service) List(ctx context.Context, req domain.ListServiceRequest) (domain.ListServiceResponse, error) {
	var filter domain.ListServiceFilter
	for _, f := range []struct {
		raw  string
		dest *int64
		err  error
	}{
		{req.VehicleID, &filter.VehicleID, domain.ErrInvalidVehicle},
		{req.TechnicianID, &filter.TechnicianID, domain.ErrInvalidTechnician},
		{req.CustomerID, &filter.CustomerID, domain.ErrInvalidID},
	} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		id, err := parseID(f.raw)
		if err != nil {
			return domain.ListServiceResponse{}, f.err
		}
		*f.dest = id.Int64()
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		if !domain.ValidStatus(status) {
			return domain.ListServiceResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = status
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
		return domain.ListServiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(rec *domain.ServiceRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        rec.ID.String(),
			CreatedAt: rec.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	services := make([]domain.ServiceRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		services = append(services, *item)
	}

	resp := domain.ListServiceResponse{Services: services}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// ensureReferences checks the vehicle and, when it is newly assigned, that the
// technician is active. A technician kept from previous stays valid after
// being deactivated.
func (s *Service) ensureReferences(ctx context.Context, tx *gorm.DB, record domain.ServiceRecord, previous *domain.ServiceRecord) error {
	exists, err := s.repo.VehicleExists(ctx, tx, record.VehicleID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrVehicleNotFound
	}
	if record.TechnicianID == nil {
		return nil
	}
	if previous != nil && previous.TechnicianID != nil && *previous.TechnicianID == *record.TechnicianID {
		return nil
	}
	exists, err = s.repo.TechnicianExists(ctx, tx, *record.TechnicianID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrTechnicianNotFound
	}
	return nil
}

// reload picks up the balance mirrored by reconciliation.
func (s *Service) reload(ctx context.Context, tx *gorm.DB, record *domain.ServiceRecord, billing invoicedomain.GenerateResult) error {
	if billing.Invoice == nil || billing.Failed() {
		return nil
	}
	fresh, err := s.repo.FindByID(ctx, tx, record.ID)
	if err != nil {
		return err
	}
	if fresh != nil {
		*record = *fresh
	}
	return nil
}

func (s *Service) afterCommit(ctx context.Context, record domain.ServiceRecord, billing invoicedomain.GenerateResult) {
	if billing.Failed() {
		s.log.Warn("service saved without invoice update",
			zap.String("service_id", record.ID.String()),
			zap.String("status", record.Status),
			zap.Error(billing.Err),
		)
		return
	}
	s.generator.AfterCommit(ctx, billing)
}

func applyUpdate(next *domain.ServiceRecord, req domain.UpdateServiceRequest) error {
	if req.TechnicianID != nil {
		id, err := parseOptionalID(*req.TechnicianID)
		if err != nil {
			return domain.ErrInvalidTechnician
		}
		next.TechnicianID = id
	}
	if req.Type != nil {
		next.ServiceType = strings.TrimSpace(*req.Type)
	}
	if req.Description != nil {
		next.Description = strings.TrimSpace(*req.Description)
	}
	if req.ServiceDate != nil {
		next.ServiceDate = datatypes.Date(*req.ServiceDate)
	}
	if req.Cost != nil {
		next.Cost = *req.Cost
	}
	if req.TaxIncluded != nil {
		next.TaxIncluded = *req.TaxIncluded
	}
	if req.AdvancePayment != nil {
		next.AdvancePayment = *req.AdvancePayment
	}
	if req.AdvancePaymentMethod != nil {
		next.AdvancePaymentMethod = normalizeMethod(*req.AdvancePaymentMethod)
	}
	if req.Status != nil {
		next.Status = strings.TrimSpace(*req.Status)
	}
	if req.EstimatedHours != nil {
		next.EstimatedHours = *req.EstimatedHours
	}
	return nil
}

func validate(record domain.ServiceRecord) error {
	if record.ServiceType == "" || len(record.ServiceType) > 100 {
		return domain.ErrInvalidType
	}
	if !validMoney(record.Cost) {
		return domain.ErrInvalidCost
	}
	if !validMoney(record.AdvancePayment) {
		return domain.ErrInvalidAdvance
	}
	if record.AdvancePaymentMethod != "" && !paymentdomain.ValidMethod(record.AdvancePaymentMethod) {
		return domain.ErrInvalidAdvanceMethod
	}
	if !domain.ValidStatus(record.Status) {
		return domain.ErrInvalidStatus
	}
	if record.EstimatedHours.IsNegative() {
		return domain.ErrInvalidEstimatedHours
	}
	return nil
}

func validMoney(v decimal.Decimal) bool {
	return !v.IsNegative() && v.Equal(v.Round(2))
}

func normalizeMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	return strings.ReplaceAll(method, " ", "_")
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

func parseOptionalID(value string) (*snowflake.ID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := parseID(value)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidTechnician
	}
	return &id, nil
}
