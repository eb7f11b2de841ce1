package rate

import (
	"github.com/warehq/warebill/internal/rate/repository"
	"github.com/warehq/warebill/internal/rate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
