package technician

import (
	"github.com/smallbiznis/garagedesk/internal/technician/service"
	"go.uber.org/fx"
)

var Module = fx.Module("technician.service",
	fx.Provide(service.New),
)
