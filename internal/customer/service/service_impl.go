package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"github.com/smallbiznis/garagedesk/internal/customer/domain"
	"github.com/smallbiznis/garagedesk/pkg/db"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.Customer{}, err
	}

	nic, err := normalizeNIC(req.NIC)
	if err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		NIC:       nic,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureUnique(ctx, tx, customer); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &customer)
	})
	if err != nil {
		return domain.Customer{}, mapWriteErr(err)
	}

	s.log.Info("customer created", zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	var updated domain.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		next := *existing
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			next.Name = name
		}
		if req.Email != nil {
			email, err := normalizeEmail(*req.Email)
			if err != nil {
				return err
			}
			next.Email = email
		}
		if req.NIC != nil {
			nic, err := normalizeNIC(req.NIC)
			if err != nil {
				return err
			}
			next.NIC = nic
		}
		if req.Phone != nil {
			next.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Address != nil {
			next.Address = strings.TrimSpace(*req.Address)
		}
		next.UpdatedAt = s.clock.Now()

		if err := s.ensureUnique(ctx, tx, next); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, &next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return domain.Customer{}, mapWriteErr(err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetCustomerRequest) error {
	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		vehicles, err := s.repo.CountVehicles(ctx, tx, id)
		if err != nil {
			return err
		}
		if vehicles > 0 {
			return domain.ErrHasVehicles
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Name:  strings.ToLower(strings.TrimSpace(req.Name)),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
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
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	resp := domain.ListCustomerResponse{Customers: customers}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

// ensureUnique reports which unique field collides so callers get a precise conflict.
func (s *Service) ensureUnique(ctx context.Context, tx *gorm.DB, customer domain.Customer) error {
	var emailOwner int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT id FROM customers WHERE email = ? AND id <> ? LIMIT 1`,
		customer.Email, customer.ID,
	).Scan(&emailOwner).Error; err != nil {
		return err
	}
	if emailOwner != 0 {
		return domain.ErrDuplicateEmail
	}

	if customer.NIC == nil {
		return nil
	}
	var nicOwner int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT id FROM customers WHERE nic = ? AND id <> ? LIMIT 1`,
		*customer.NIC, customer.ID,
	).Scan(&nicOwner).Error; err != nil {
		return err
	}
	if nicOwner != 0 {
		return domain.ErrDuplicateNIC
	}
	return nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeEmail(value string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(value))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func normalizeNIC(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	nic := strings.ToUpper(strings.TrimSpace(*value))
	if nic == "" {
		return nil, nil
	}
	if len(nic) > 20 {
		return nil, domain.ErrInvalidNIC
	}
	return &nic, nil
}

// mapWriteErr turns a unique index violation that slipped past ensureUnique
// into a conflict.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if db.IsDuplicateKeyErr(err) {
		if strings.Contains(strings.ToLower(err.Error()), "nic") {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateNIC, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrDuplicateEmail, err)
	}
	return err
}
