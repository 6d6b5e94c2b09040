package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	"github.com/oakline/closedesk/internal/clock"
	"github.com/oakline/closedesk/internal/notification"
	"github.com/oakline/closedesk/internal/observability/metrics"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	shortfalldomain "github.com/oakline/closedesk/internal/shortfall/domain"
	soadomain "github.com/oakline/closedesk/internal/soa/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/oakline/closedesk/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	analysisRepo   repository.Repository[shortfalldomain.Analysis]
	unitRepo       repository.Repository[unitdomain.Unit]
	purchaserRepo  repository.Repository[unitdomain.Purchaser]
	financialsRepo repository.Repository[projectdomain.ProjectFinancials]

	statements soadomain.Service
	audit      auditdomain.Service
	notifier   notification.Dispatcher
	metrics    *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Statements soadomain.Service
	Audit      auditdomain.Service
	Notifier   notification.Dispatcher
	Metrics    *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) shortfalldomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("shortfall.service"),
		genID: p.GenID,
		clock: p.Clock,

		analysisRepo:   repository.ProvideStore[shortfalldomain.Analysis](p.DB),
		unitRepo:       repository.ProvideStore[unitdomain.Unit](p.DB),
		purchaserRepo:  repository.ProvideStore[unitdomain.Purchaser](p.DB),
		financialsRepo: repository.ProvideStore[projectdomain.ProjectFinancials](p.DB),

		statements: p.Statements,
		audit:      p.Audit,
		notifier:   p.Notifier,
		metrics:    p.Metrics,
	}
}

func (s *Service) Analyze(ctx context.Context, unitID string) (*shortfalldomain.Analysis, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, unitdomain.ErrNotFound
	}

	// A current statement is the analysis input; calculate one when the
	// unit has none yet.
	stmt, err := s.statements.Get(ctx, unitID)
	if errors.Is(err, soadomain.ErrNotFound) {
		stmt, err = s.statements.Recalculate(ctx, unitID)
	}
	if err != nil {
		return nil, err
	}

	var result *shortfalldomain.Analysis
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit, err := s.unitRepo.WithTrx(tx).FindOne(ctx, &unitdomain.Unit{ID: id})
		if err != nil {
			return err
		}
		if unit == nil {
			return unitdomain.ErrNotFound
		}

		in, err := s.buildInput(ctx, tx, unit, stmt)
		if err != nil {
			return err
		}
		res := shortfalldomain.Classify(in)

		analysis, err := s.analysisRepo.WithTrx(tx).FindOne(ctx, &shortfalldomain.Analysis{UnitID: id})
		if err != nil {
			return err
		}
		if analysis == nil {
			analysis = &shortfalldomain.Analysis{
				ID:     s.genID.Generate(),
				UnitID: id,
			}
		}
		analysis.ShortfallAmount = res.ShortfallAmount
		analysis.ShortfallPercent = res.ShortfallPercent
		analysis.Scenario = res.Scenario
		analysis.RiskTier = res.RiskTier
		analysis.SuggestedDiscount = res.SuggestedDiscount
		analysis.SuggestedVTB = res.SuggestedVTB
		analysis.MutualReleaseThreshold = res.MutualReleaseThreshold
		analysis.Recommendation = res.Recommendation
		analysis.AnalyzedAt = s.clock.Now()

		if err := s.analysisRepo.WithTrx(tx).Save(ctx, analysis); err != nil {
			return err
		}

		if unit.Open() {
			unit.Status = shortfalldomain.StatusFor(res.Scenario)
			unit.Recommendation = res.Recommendation
			if err := s.unitRepo.WithTrx(tx).Save(ctx, unit); err != nil {
				return err
			}
		}

		if err := s.audit.Record(ctx, tx,
			auditdomain.Actor{ID: "system", Role: "system"},
			auditdomain.ActionShortfallAnalyze,
			"shortfall_analysis", id.String(), map[string]any{
				"scenario":  string(res.Scenario),
				"risk_tier": string(res.RiskTier),
			}); err != nil {
			return err
		}

		result = analysis
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordShortfallAnalysis(string(result.Scenario))
	if shortfalldomain.StatusFor(result.Scenario) == unitdomain.StatusAtRisk {
		s.notifier.Dispatch(ctx, notification.Event{
			Kind:   notification.KindUnitAtRisk,
			UnitID: id,
			Detail: map[string]string{
				"scenario":  string(result.Scenario),
				"risk_tier": string(result.RiskTier),
			},
		})
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, unitID string) (*shortfalldomain.Analysis, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, shortfalldomain.ErrNotFound
	}
	analysis, err := s.analysisRepo.FindOne(ctx, &shortfalldomain.Analysis{UnitID: id})
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, shortfalldomain.ErrNotFound
	}
	return analysis, nil
}

// buildInput flattens the purchaser and project capital picture for the
// classifier.
func (s *Service) buildInput(ctx context.Context, tx *gorm.DB, unit *unitdomain.Unit, stmt *soadomain.Statement) (shortfalldomain.Input, error) {
	in := shortfalldomain.Input{
		PurchasePrice:       unit.PurchasePrice,
		CashRequiredToClose: stmt.CashRequiredToClose,
		DepositsPaid:        stmt.DepositsPaid,
	}

	purchasers, err := s.purchaserRepo.WithTrx(tx).Find(ctx, &unitdomain.Purchaser{UnitID: unit.ID})
	if err != nil {
		return in, err
	}
	var primary *unitdomain.Purchaser
	for _, p := range purchasers {
		if p.IsPrimary {
			primary = p
			break
		}
	}
	if primary == nil && len(purchasers) > 0 {
		primary = purchasers[0]
	}
	if primary != nil {
		in.MortgageApproved = primary.MortgageApprovedAmount
		in.CreditScore = primary.CreditScore
		in.DeclaredFunds = primary.TotalDeclaredFunds
		in.CashAvailable = primary.CashAvailable
		in.AppraisedValue = primary.AppraisedValue
	}

	financials, err := s.financialsRepo.WithTrx(tx).FindOne(ctx, &projectdomain.ProjectFinancials{ProjectID: unit.ProjectID})
	if err != nil {
		return in, err
	}
	if financials == nil {
		return in, nil
	}

	var openUnits int64
	if err := tx.WithContext(ctx).
		Model(&unitdomain.Unit{}).
		Where("project_id = ? AND status <> ?", unit.ProjectID, unitdomain.StatusClosed).
		Count(&openUnits).Error; err != nil {
		return in, err
	}
	if openUnits < 1 {
		openUnits = 1
	}

	divisor := decimal.NewFromInt(openUnits)
	in.ProfitShare = financials.ProfitAvailable.Div(divisor).Round(2)
	in.VTBShare = financials.MaxBuilderCapital.Div(divisor).Round(2)
	in.HasFinancials = true
	return in, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
