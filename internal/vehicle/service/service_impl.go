package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"github.com/smallbiznis/garagedesk/internal/vehicle/domain"
	"github.com/smallbiznis/garagedesk/pkg/db"
	"github.com/smallbiznis/garagedesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minYear = 1900

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
		log:   p.Log.Named("vehicle.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateVehicleRequest) (domain.Vehicle, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Vehicle{}, domain.ErrInvalidCustomer
	}

	now := s.clock.Now()
	vehicle := domain.Vehicle{
		ID:          s.genID.Generate(),
		CustomerID:  customerID,
		Brand:       strings.TrimSpace(req.Brand),
		Model:       strings.TrimSpace(req.Model),
		Year:        req.Year,
		PlateNumber: normalizePlate(req.PlateNumber),
		Color:       strings.TrimSpace(req.Color),
		Mileage:     req.Mileage,
		FuelType:    strings.TrimSpace(req.FuelType),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if vehicle.FuelType == "" {
		vehicle.FuelType = domain.DefaultFuelType
	}
	if err := s.validate(vehicle); err != nil {
		return domain.Vehicle{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.CustomerExists(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCustomerMissing
		}
		if err := s.ensurePlateFree(ctx, tx, vehicle); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &vehicle)
	})
	if err != nil {
		return domain.Vehicle{}, mapWriteErr(err)
	}
	return vehicle, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateVehicleRequest) (domain.Vehicle, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Vehicle{}, err
	}

	var updated domain.Vehicle
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		next := *existing
		if req.Brand != nil {
			next.Brand = strings.TrimSpace(*req.Brand)
		}
		if req.Model != nil {
			next.Model = strings.TrimSpace(*req.Model)
		}
		if req.Year != nil {
			next.Year = *req.Year
		}
		if req.PlateNumber != nil {
			next.PlateNumber = normalizePlate(*req.PlateNumber)
		}
		if req.Color != nil {
			next.Color = strings.TrimSpace(*req.Color)
		}
		if req.Mileage != nil {
			next.Mileage = *req.Mileage
		}
		if req.FuelType != nil {
			next.FuelType = strings.TrimSpace(*req.FuelType)
		}
		if err := s.validate(next); err != nil {
			return err
		}
		if err := s.ensurePlateFree(ctx, tx, next); err != nil {
			return err
		}
		next.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, &next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return domain.Vehicle{}, mapWriteErr(err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
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
		services, err := s.repo.CountServices(ctx, tx, id)
		if err != nil {
			return err
		}
		if services > 0 {
			return domain.ErrHasServices
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Vehicle, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Vehicle{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if item == nil {
		return domain.Vehicle{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListVehicleRequest) (domain.ListVehicleResponse, error) {
	filter := domain.ListVehicleFilter{Plate: normalizePlate(req.Plate)}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil || customerID == 0 {
			return domain.ListVehicleResponse{}, domain.ErrInvalidCustomer
		}
		filter.CustomerID = customerID.Int64()
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
		return domain.ListVehicleResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(v *domain.Vehicle) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        v.ID.String(),
			CreatedAt: v.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	vehicles := make([]domain.Vehicle, 0, len(items))
	for _, item := range items {
		if item != nil {
			vehicles = append(vehicles, *item)
		}
	}

	resp := domain.ListVehicleResponse{Vehicles: vehicles}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) validate(v domain.Vehicle) error {
	switch {
	case v.Brand == "":
		return domain.ErrInvalidBrand
	case v.Model == "":
		return domain.ErrInvalidModel
	case v.Year < minYear || v.Year > s.clock.Now().Year()+1:
		return domain.ErrInvalidYear
	case v.PlateNumber == "" || len(v.PlateNumber) > 20:
		return domain.ErrInvalidPlate
	case v.Mileage < 0:
		return domain.ErrInvalidMileage
	case v.FuelType == "" || len(v.FuelType) > 20:
		return domain.ErrInvalidFuelType
	}
	return nil
}

func (s *Service) ensurePlateFree(ctx context.Context, tx *gorm.DB, v domain.Vehicle) error {
	owner, err := s.repo.FindByPlate(ctx, tx, v.PlateNumber)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != v.ID {
		return domain.ErrDuplicatePlate
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// normalizePlate upper-cases and collapses inner whitespace: "wp  cab-1234" -> "WP CAB-1234".
func normalizePlate(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}

func mapWriteErr(err error) error {
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicatePlate
	}
	return err
}
