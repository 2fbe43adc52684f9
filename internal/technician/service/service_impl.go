package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/garagedesk/internal/clock"
	"github.com/smallbiznis/garagedesk/internal/technician/domain"
	"github.com/smallbiznis/garagedesk/pkg/db/option"
	"github.com/smallbiznis/garagedesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openStatuses are the service statuses that count toward workload.
var openStatuses = []string{"Pending", "In Progress"}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	store repository.Repository[domain.Technician]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("technician.service"),
		genID: p.GenID,
		clock: p.Clock,
		store: repository.ProvideStore[domain.Technician](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateTechnicianRequest) (domain.Technician, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Technician{}, domain.ErrInvalidName
	}
	now := s.clock.Now()
	tech := domain.Technician{
		ID:             s.genID.Generate(),
		Name:           name,
		Specialization: strings.TrimSpace(req.Specialization),
		Phone:          strings.TrimSpace(req.Phone),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, &tech); err != nil {
		return domain.Technician{}, err
	}
	return tech, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTechnicianRequest) (domain.Technician, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Technician{}, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Technician{}, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Specialization != nil {
		fields["specialization"] = strings.TrimSpace(*req.Specialization)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}

	var updated domain.Technician
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTrx(tx)
		existing, err := store.FindOne(ctx, &domain.Technician{ID: id})
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		if req.Active != nil && !*req.Active && existing.Active {
			if err := s.fillWorkload(ctx, tx, []*domain.Technician{existing}); err != nil {
				return err
			}
			if existing.Workload > 0 {
				return domain.ErrHasWorkload
			}
		}
		if len(fields) > 0 {
			fields["updated_at"] = s.clock.Now()
			if err := store.Update(ctx, id, fields); err != nil {
				return err
			}
		}
		reloaded, err := store.FindOne(ctx, &domain.Technician{ID: id})
		if err != nil {
			return err
		}
		updated = *reloaded
		return s.fillWorkload(ctx, tx, []*domain.Technician{&updated})
	})
	if err != nil {
		return domain.Technician{}, err
	}
	return updated, nil
}

// Delete removes a technician with no service history. Technicians who have
// worked on services should be deactivated instead.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTrx(tx)
		existing, err := store.FindOne(ctx, &domain.Technician{ID: id})
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		var assigned int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM service_records WHERE technician_id = ?`, id,
		).Scan(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return domain.ErrHasHistories
		}
		return store.Delete(ctx, id)
	})
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Technician, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.Technician{}, err
	}
	item, err := s.store.FindOne(ctx, &domain.Technician{ID: id})
	if err != nil {
		return domain.Technician{}, err
	}
	if item == nil {
		return domain.Technician{}, domain.ErrNotFound
	}
	if err := s.fillWorkload(ctx, s.db, []*domain.Technician{item}); err != nil {
		return domain.Technician{}, err
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListTechnicianRequest) ([]domain.Technician, error) {
	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{SortBy: "name", Desc: boolPtr(false), Allow: map[string]bool{"name": true}}),
	}
	if req.ActiveOnly {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "active", Operator: option.EQ, Value: true}))
	}
	items, err := s.store.Find(ctx, &domain.Technician{}, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.fillWorkload(ctx, s.db, items); err != nil {
		return nil, err
	}
	out := make([]domain.Technician, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) fillWorkload(ctx context.Context, db *gorm.DB, items []*domain.Technician) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID.Int64())
	}

	var rows []struct {
		TechnicianID int64
		OpenCount    int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT technician_id, COUNT(1) AS open_count FROM service_records
		 WHERE technician_id IN ? AND status IN ?
		 GROUP BY technician_id`,
		ids, openStatuses,
	).Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.TechnicianID] = row.OpenCount
	}
	for _, item := range items {
		item.Workload = counts[item.ID.Int64()]
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

func boolPtr(v bool) *bool { return &v }
