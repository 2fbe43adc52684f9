package invoice

import (
	"github.com/smallbiznis/garagedesk/internal/invoice/domain"
	"github.com/smallbiznis/garagedesk/internal/invoice/repository"
	"github.com/smallbiznis/garagedesk/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(
		fx.Annotate(
			service.New,
			fx.As(new(domain.Service)),
			fx.As(new(domain.Generator)),
		),
	),
)
