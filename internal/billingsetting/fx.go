package billingsetting

import (
	"github.com/smallbiznis/garagedesk/internal/billingsetting/repository"
	"github.com/smallbiznis/garagedesk/internal/billingsetting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingsetting.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewProvider),
	fx.Provide(service.New),
)
