package labor

import (
	"github.com/warehq/warebill/internal/labor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("labor.service",
	fx.Provide(service.NewService),
)
