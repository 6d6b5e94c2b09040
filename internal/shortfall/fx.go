package shortfall

import (
	"github.com/oakline/closedesk/internal/shortfall/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shortfall.service",
	fx.Provide(service.NewService),
)
