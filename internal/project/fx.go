package project

import (
	"github.com/oakline/closedesk/internal/project/rollup"
	"github.com/oakline/closedesk/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(service.NewService),
	fx.Provide(rollup.NewService),
)
