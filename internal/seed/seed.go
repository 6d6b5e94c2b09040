// Package seed provisions default reference data and, behind a config
// flag, a demo project for local development.
package seed

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oakline/closedesk/internal/config"
	depositdomain "github.com/oakline/closedesk/internal/deposit/domain"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/oakline/closedesk/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger, genID *snowflake.Node) error {
		if err := EnsureSystemFees(conn, genID); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return EnsureDemoProject(conn, log.Named("seed"), genID)
		}
		return nil
	}),
)

// EnsureSystemFees creates the four engine fee keys when missing so a
// fresh install calculates sensible statements out of the box.
func EnsureSystemFees(conn *gorm.DB, genID *snowflake.Node) error {
	defaults := []feedomain.FeeSchedule{
		{Key: feedomain.FeeKeyHCRA, Name: "HCRA regulatory fee", Amount: money.D("145"), HSTApplicable: true},
		{Key: feedomain.FeeKeyElectronicRegistration, Name: "Electronic registration", Amount: money.D("80.52"), HSTIncluded: true},
		{Key: feedomain.FeeKeyStatusCertificate, Name: "Status certificate", Amount: money.D("100"), HSTIncluded: true},
		{Key: feedomain.FeeKeyTransactionLevy, Name: "Law society transaction levy", Amount: money.D("65"), HSTApplicable: true},
	}

	for _, fee := range defaults {
		var count int64
		if err := conn.Model(&feedomain.FeeSchedule{}).Where("key = ?", fee.Key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		fee.ID = genID.Generate()
		fee.IsEnabled = true
		if err := conn.Create(&fee).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureDemoProject creates one project with a sold unit, deposits and a
// purchaser, for exercising the API locally. Idempotent by project name.
func EnsureDemoProject(conn *gorm.DB, log *zap.Logger, genID *snowflake.Node) error {
	var count int64
	if err := conn.Model(&projectdomain.Project{}).Where("name = ?", "Harbourview Demo").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		project := projectdomain.Project{
			ID:   genID.Generate(),
			Name: "Harbourview Demo",
			City: "Toronto",
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		fees := []projectdomain.ProjectFee{
			{ID: genID.Generate(), ProjectID: project.ID, FeeType: projectdomain.FeeTypeDevelopmentCharges, Name: "Development charges", Amount: money.D("9500")},
			{ID: genID.Generate(), ProjectID: project.ID, FeeType: projectdomain.FeeTypeEDC, Name: "Education development charges", Amount: money.D("1200")},
			{ID: genID.Generate(), ProjectID: project.ID, FeeType: projectdomain.FeeTypeParklandLevy, Name: "Parkland levy", Amount: money.D("800")},
			{ID: genID.Generate(), ProjectID: project.ID, FeeType: projectdomain.FeeTypeHydroConnection, Name: "Hydro connection", Amount: money.D("350")},
		}
		for i := range fees {
			if err := tx.Create(&fees[i]).Error; err != nil {
				return err
			}
		}

		cap := projectdomain.LevyCap{
			ID:                   genID.Generate(),
			ProjectID:            project.ID,
			Category:             "development",
			CapAmount:            money.D("7500"),
			ExcessResponsibility: projectdomain.ExcessAbsorbedByBuilder,
		}
		if err := tx.Create(&cap).Error; err != nil {
			return err
		}

		financials := projectdomain.ProjectFinancials{
			ID:                genID.Generate(),
			ProjectID:         project.ID,
			TotalRevenue:      money.D("150000000"),
			TotalInvestment:   money.D("120000000"),
			MarketingCost:     money.D("4000000"),
			ProfitAvailable:   money.D("9000000"),
			MaxBuilderCapital: money.D("5000000"),
		}
		if err := tx.Create(&financials).Error; err != nil {
			return err
		}

		occupancy := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
		closing := time.Date(2025, time.September, 15, 0, 0, 0, 0, time.UTC)
		unit := unitdomain.Unit{
			ID:                 genID.Generate(),
			ProjectID:          project.ID,
			Number:             "1204",
			PurchasePrice:      money.D("650000"),
			HasParking:         true,
			ParkingPrice:       money.D("60000"),
			SquareFootage:      money.D("720"),
			OccupancyDate:      &occupancy,
			ClosingDate:        &closing,
			PrimaryResidence:   true,
			HSTRebateToBuilder: true,
			Status:             unitdomain.StatusSold,
		}
		if err := tx.Create(&unit).Error; err != nil {
			return err
		}

		mortgage := money.D("480000")
		score := 710
		purchaser := unitdomain.Purchaser{
			ID:                     genID.Generate(),
			UnitID:                 unit.ID,
			Name:                   "Demo Purchaser",
			IsPrimary:              true,
			MortgageApprovedAmount: &mortgage,
			CreditScore:            &score,
		}
		if err := tx.Create(&purchaser).Error; err != nil {
			return err
		}

		paid := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		deposit := depositdomain.Deposit{
			ID:               genID.Generate(),
			UnitID:           unit.ID,
			Amount:           money.D("65000"),
			IsPaid:           true,
			PaidDate:         &paid,
			Holder:           "builder_lawyer_trust",
			InterestEligible: true,
			FlatAnnualRate:   money.D("2.0"),
		}
		if err := tx.Create(&deposit).Error; err != nil {
			return err
		}

		log.Info("demo project seeded", zap.String("project_id", project.ID.String()))
		return nil
	})
}
