package audit

import (
	"github.com/oakline/closedesk/internal/audit/repository"
	"github.com/oakline/closedesk/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
