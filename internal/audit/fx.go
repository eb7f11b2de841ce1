package audit

import (
	"github.com/warehq/warebill/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(service.NewService),
)
