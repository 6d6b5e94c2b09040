package feeschedule

import (
	"github.com/oakline/closedesk/internal/feeschedule/domain"
	"github.com/oakline/closedesk/internal/feeschedule/repository"
	"github.com/oakline/closedesk/internal/feeschedule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feeschedule.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
	fx.Provide(func(svc domain.Service) domain.Resolver { return svc }),
)
