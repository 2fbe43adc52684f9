package servicerecord

import (
	"github.com/smallbiznis/garagedesk/internal/servicerecord/repository"
	"github.com/smallbiznis/garagedesk/internal/servicerecord/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicerecord.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
