package payment

import (
	"github.com/smallbiznis/garagedesk/internal/payment/repository"
	"github.com/smallbiznis/garagedesk/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewReconciler),
	fx.Provide(service.NewService),
)
