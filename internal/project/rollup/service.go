// Package rollup aggregates unit-level shortfall analyses into a
// project summary, scaling suggestions down to the capital actually
// available.
package rollup

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	"github.com/oakline/closedesk/internal/clock"
	"github.com/oakline/closedesk/internal/observability/metrics"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	shortfalldomain "github.com/oakline/closedesk/internal/shortfall/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/oakline/closedesk/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("project.rollup"),
		genID:   p.GenID,
		clock:   p.Clock,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

// Recompute rebuilds the project summary. Suggested discounts are scaled
// down proportionally when they exceed the profit pool, vendor take-backs
// when they exceed the builder's capital; the scaled figures are written
// back to the analyses so unit and project views agree.
func (s *Service) Recompute(ctx context.Context, projectID string, actor auditdomain.Actor) (*projectdomain.ProjectSummary, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, projectdomain.ErrNotFound
	}

	var summary *projectdomain.ProjectSummary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project projectdomain.Project
		if err := tx.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return projectdomain.ErrNotFound
			}
			return err
		}

		var units []unitdomain.Unit
		if err := tx.WithContext(ctx).Where("project_id = ?", id).Find(&units).Error; err != nil {
			return err
		}

		openIDs := make([]snowflake.ID, 0, len(units))
		statusCounts := map[string]any{}
		openUnits := 0
		totalSales := decimal.Zero
		for _, unit := range units {
			if unit.Open() {
				openUnits++
				openIDs = append(openIDs, unit.ID)
				statusCounts[string(unit.Status)] = toInt(statusCounts[string(unit.Status)]) + 1
				totalSales = totalSales.Add(unit.TotalPrice())
			}
		}

		var analyses []shortfalldomain.Analysis
		if len(openIDs) > 0 {
			if err := tx.WithContext(ctx).Where("unit_id IN ?", openIDs).Find(&analyses).Error; err != nil {
				return err
			}
		}

		var financials projectdomain.ProjectFinancials
		hasFinancials := true
		if err := tx.WithContext(ctx).Where("project_id = ?", id).First(&financials).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			hasFinancials = false
		}

		totalShortfall := decimal.Zero
		totalDiscount := decimal.Zero
		totalVTB := decimal.Zero
		for _, a := range analyses {
			totalShortfall = totalShortfall.Add(a.ShortfallAmount)
			totalDiscount = totalDiscount.Add(a.SuggestedDiscount)
			totalVTB = totalVTB.Add(a.SuggestedVTB)
		}

		if hasFinancials {
			discountFactor := scaleFactor(totalDiscount, financials.ProfitAvailable)
			vtbFactor := scaleFactor(totalVTB, financials.MaxBuilderCapital)
			if !discountFactor.Equal(decimal.NewFromInt(1)) || !vtbFactor.Equal(decimal.NewFromInt(1)) {
				totalDiscount = decimal.Zero
				totalVTB = decimal.Zero
				for i := range analyses {
					analyses[i].SuggestedDiscount = money.Round2(analyses[i].SuggestedDiscount.Mul(discountFactor))
					analyses[i].SuggestedVTB = money.Round2(analyses[i].SuggestedVTB.Mul(vtbFactor))
					totalDiscount = totalDiscount.Add(analyses[i].SuggestedDiscount)
					totalVTB = totalVTB.Add(analyses[i].SuggestedVTB)
					if err := tx.WithContext(ctx).Save(&analyses[i]).Error; err != nil {
						return err
					}
				}
			}
		}

		scenarioCounts := map[string]any{}
		fundNeeded := decimal.Zero
		for _, a := range analyses {
			scenarioCounts[string(a.Scenario)] = toInt(scenarioCounts[string(a.Scenario)]) + 1
			residual := a.ShortfallAmount.Sub(a.SuggestedDiscount).Sub(a.SuggestedVTB)
			fundNeeded = fundNeeded.Add(money.NonNegative(residual))
		}

		scenarioPercents := map[string]any{}
		if len(analyses) > 0 {
			analyzed := decimal.NewFromInt(int64(len(analyses)))
			for scenario, count := range scenarioCounts {
				share := decimal.NewFromInt(int64(toInt(count)))
				scenarioPercents[scenario] = money.Percent(share, analyzed).InexactFloat64()
			}
		}

		var existing projectdomain.ProjectSummary
		err := tx.WithContext(ctx).Where("project_id = ?", id).First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if err == gorm.ErrRecordNotFound {
			existing = projectdomain.ProjectSummary{
				ID:        s.genID.Generate(),
				ProjectID: id,
			}
		}

		existing.TotalUnits = len(units)
		existing.OpenUnits = openUnits
		existing.StatusCounts = datatypes.JSONMap(statusCounts)
		existing.ScenarioCounts = datatypes.JSONMap(scenarioCounts)
		existing.ScenarioPercents = datatypes.JSONMap(scenarioPercents)
		existing.TotalSalesValue = totalSales
		existing.TotalShortfall = totalShortfall
		existing.TotalSuggestedDiscount = totalDiscount
		existing.TotalSuggestedVTB = totalVTB
		existing.TotalFundNeeded = fundNeeded
		if hasFinancials {
			existing.ProfitAvailable = financials.ProfitAvailable
			existing.MaxBuilderCapital = financials.MaxBuilderCapital
		}
		existing.RecomputedAt = s.clock.Now()

		if err := tx.WithContext(ctx).Save(&existing).Error; err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, auditdomain.ActionSummaryRecompute,
			"project", id.String(), map[string]any{
				"open_units":        openUnits,
				"total_fund_needed": fundNeeded.String(),
			}); err != nil {
			return err
		}

		summary = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSummaryRecompute()
	return summary, nil
}

// GetSummary returns the last computed summary for a project.
func (s *Service) GetSummary(ctx context.Context, projectID string) (*projectdomain.ProjectSummary, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, projectdomain.ErrNotFound
	}
	var summary projectdomain.ProjectSummary
	if err := s.db.WithContext(ctx).Where("project_id = ?", id).First(&summary).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, projectdomain.ErrSummaryNotFound
		}
		return nil, err
	}
	return &summary, nil
}

// scaleFactor is pool/total capped at 1; a non-positive pool zeroes the
// suggestions outright.
func scaleFactor(total, pool decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if !total.IsPositive() {
		return one
	}
	if !pool.IsPositive() {
		return decimal.Zero
	}
	if total.LessThanOrEqual(pool) {
		return one
	}
	return pool.Div(total)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
