package migration

import (
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	"github.com/oakline/closedesk/internal/config"
	depositdomain "github.com/oakline/closedesk/internal/deposit/domain"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	shortfalldomain "github.com/oakline/closedesk/internal/shortfall/domain"
	soadomain "github.com/oakline/closedesk/internal/soa/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}
		return autoMigrate(conn)
	}),
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&projectdomain.Project{},
		&projectdomain.ProjectFee{},
		&projectdomain.LevyCap{},
		&projectdomain.ProjectFinancials{},
		&projectdomain.ProjectSummary{},
		&unitdomain.Unit{},
		&unitdomain.Purchaser{},
		&unitdomain.UnitFee{},
		&unitdomain.OccupancyFee{},
		&depositdomain.Deposit{},
		&depositdomain.RatePeriod{},
		&feedomain.FeeSchedule{},
		&soadomain.Statement{},
		&soadomain.StatementVersion{},
		&shortfalldomain.Analysis{},
		&auditdomain.AuditLog{},
	)
}
