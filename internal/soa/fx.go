package soa

import (
	"github.com/oakline/closedesk/internal/soa/service"
	"go.uber.org/fx"
)

var Module = fx.Module("soa.service",
	fx.Provide(service.NewService),
)
