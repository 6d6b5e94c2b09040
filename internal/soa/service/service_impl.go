package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	"github.com/oakline/closedesk/internal/clock"
	depositdomain "github.com/oakline/closedesk/internal/deposit/domain"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	"github.com/oakline/closedesk/internal/notification"
	"github.com/oakline/closedesk/internal/observability/metrics"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	soadomain "github.com/oakline/closedesk/internal/soa/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/oakline/closedesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	stmtRepo       repository.Repository[soadomain.Statement]
	versionRepo    repository.Repository[soadomain.StatementVersion]
	unitRepo       repository.Repository[unitdomain.Unit]
	purchaserRepo  repository.Repository[unitdomain.Purchaser]
	unitFeeRepo    repository.Repository[unitdomain.UnitFee]
	occFeeRepo     repository.Repository[unitdomain.OccupancyFee]
	depositRepo    repository.Repository[depositdomain.Deposit]
	ratePeriodRepo repository.Repository[depositdomain.RatePeriod]
	projectRepo    repository.Repository[projectdomain.Project]
	projectFeeRepo repository.Repository[projectdomain.ProjectFee]
	levyCapRepo    repository.Repository[projectdomain.LevyCap]

	fees     feedomain.Resolver
	audit    auditdomain.Service
	notifier notification.Dispatcher
	metrics  *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Fees     feedomain.Resolver
	Audit    auditdomain.Service
	Notifier notification.Dispatcher
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) soadomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("soa.service"),
		genID: p.GenID,
		clock: p.Clock,

		stmtRepo:       repository.ProvideStore[soadomain.Statement](p.DB),
		versionRepo:    repository.ProvideStore[soadomain.StatementVersion](p.DB),
		unitRepo:       repository.ProvideStore[unitdomain.Unit](p.DB),
		purchaserRepo:  repository.ProvideStore[unitdomain.Purchaser](p.DB),
		unitFeeRepo:    repository.ProvideStore[unitdomain.UnitFee](p.DB),
		occFeeRepo:     repository.ProvideStore[unitdomain.OccupancyFee](p.DB),
		depositRepo:    repository.ProvideStore[depositdomain.Deposit](p.DB),
		ratePeriodRepo: repository.ProvideStore[depositdomain.RatePeriod](p.DB),
		projectRepo:    repository.ProvideStore[projectdomain.Project](p.DB),
		projectFeeRepo: repository.ProvideStore[projectdomain.ProjectFee](p.DB),
		levyCapRepo:    repository.ProvideStore[projectdomain.LevyCap](p.DB),

		fees:     p.Fees,
		audit:    p.Audit,
		notifier: p.Notifier,
		metrics:  p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, unitID string) (*soadomain.Statement, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, soadomain.ErrNotFound
	}
	stmt, err := s.stmtRepo.FindOne(ctx, &soadomain.Statement{UnitID: id})
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, soadomain.ErrNotFound
	}
	return stmt, nil
}

func (s *Service) Recalculate(ctx context.Context, unitID string) (*soadomain.Statement, error) {
	return s.recalculate(ctx, unitID, nil)
}

func (s *Service) RecalculateAndRecord(ctx context.Context, unitID string, actor auditdomain.Actor) (*soadomain.Statement, error) {
	return s.recalculate(ctx, unitID, &actor)
}

// recalculate recomputes the statement in place. A non-nil actor appends
// a version row and an audit entry in the same transaction.
func (s *Service) recalculate(ctx context.Context, unitID string, actor *auditdomain.Actor) (*soadomain.Statement, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, unitdomain.ErrNotFound
	}

	var result *soadomain.Statement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.stmtRepo.WithTrx(tx).FindOne(ctx, &soadomain.Statement{UnitID: id})
		if err != nil {
			return err
		}
		if existing != nil && existing.LockState.Locked() {
			return soadomain.ErrStatementLocked
		}

		in, err := s.loadCalcInput(ctx, tx, id)
		if err != nil {
			return err
		}

		stmt := soadomain.Calculate(in)
		if existing != nil {
			stmt.ID = existing.ID
			stmt.CalculationVersion = existing.CalculationVersion
			stmt.CreatedAt = existing.CreatedAt
		} else {
			stmt.ID = s.genID.Generate()
		}
		// Figures changed; prior confirmations no longer stand.
		stmt.LockState = soadomain.LockStateUnlocked

		if actor != nil {
			next, err := s.nextVersion(ctx, tx, id)
			if err != nil {
				return err
			}
			stmt.CalculationVersion = next
			version := soadomain.StatementVersion{
				ID:                    s.genID.Generate(),
				UnitID:                id,
				VersionNumber:         next,
				Source:                soadomain.VersionSourceCalculation,
				ActorID:               actor.ID,
				ActorRole:             actor.Role,
				TotalVendorCredits:    stmt.TotalVendorCredits,
				TotalPurchaserCredits: stmt.TotalPurchaserCredits,
				BalanceDueOnClosing:   stmt.BalanceDueOnClosing,
				CashRequiredToClose:   stmt.CashRequiredToClose,
				CreatedAt:             s.clock.Now(),
			}
			if err := s.versionRepo.WithTrx(tx).Create(ctx, &version); err != nil {
				return err
			}
			meta := map[string]any{
				"version":                version.VersionNumber,
				"balance_due_on_closing": stmt.BalanceDueOnClosing.String(),
			}
			if existing != nil {
				meta["prior_balance_due_on_closing"] = existing.BalanceDueOnClosing.String()
			}
			if err := s.audit.Record(ctx, tx, *actor, auditdomain.ActionStatementCalculate,
				"statement", id.String(), meta); err != nil {
				return err
			}
		}

		if err := s.stmtRepo.WithTrx(tx).Save(ctx, &stmt); err != nil {
			return err
		}
		result = &stmt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRecalculation()
	if actor != nil {
		s.notifier.Dispatch(ctx, notification.Event{
			Kind:      notification.KindStatementRecalculated,
			UnitID:    id,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
		})
	}
	return result, nil
}

func (s *Service) Confirm(ctx context.Context, unitID string, role soadomain.ConfirmRole, actor auditdomain.Actor) (*soadomain.Statement, error) {
	if role != soadomain.ConfirmRoleBuilder && role != soadomain.ConfirmRoleLawyer {
		return nil, soadomain.ErrInvalidRole
	}
	id, err := parseID(unitID)
	if err != nil {
		return nil, soadomain.ErrNotFound
	}

	var result *soadomain.Statement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt, err := s.stmtRepo.WithTrx(tx).FindOne(ctx, &soadomain.Statement{UnitID: id})
		if err != nil {
			return err
		}
		if stmt == nil {
			return soadomain.ErrNotFound
		}
		if stmt.LockState.Locked() {
			return soadomain.ErrStatementLocked
		}

		next := stmt.LockState.Confirm(role)
		if next == stmt.LockState {
			result = stmt
			return nil
		}
		stmt.LockState = next

		now := s.clock.Now()
		switch role {
		case soadomain.ConfirmRoleBuilder:
			stmt.ConfirmedByBuilderAt = &now
		case soadomain.ConfirmRoleLawyer:
			stmt.ConfirmedByLawyerAt = &now
		}

		if err := s.stmtRepo.WithTrx(tx).Save(ctx, stmt); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, auditdomain.ActionStatementConfirm,
			"statement", id.String(), map[string]any{
				"role":       string(role),
				"lock_state": string(next),
			}); err != nil {
			return err
		}
		result = stmt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) Lock(ctx context.Context, unitID string, actor auditdomain.Actor) (*soadomain.Statement, bool, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, false, soadomain.ErrNotFound
	}

	var result *soadomain.Statement
	var locked, changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt, err := s.stmtRepo.WithTrx(tx).FindOne(ctx, &soadomain.Statement{UnitID: id})
		if err != nil {
			return err
		}
		if stmt == nil {
			return soadomain.ErrNotFound
		}

		next, ok := stmt.LockState.Lock()
		locked = ok
		if !ok || stmt.LockState.Locked() {
			result = stmt
			return nil
		}
		changed = true

		now := s.clock.Now()
		stmt.LockState = next
		stmt.LockedAt = &now
		if err := s.stmtRepo.WithTrx(tx).Save(ctx, stmt); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, auditdomain.ActionStatementLock,
			"statement", id.String(), nil); err != nil {
			return err
		}
		result = stmt
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		s.notifier.Dispatch(ctx, notification.Event{
			Kind:      notification.KindStatementLocked,
			UnitID:    id,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
		})
	} else if !locked {
		s.metrics.RecordLockDenial()
		s.log.Info("lock refused, confirmations missing",
			zap.String("unit_id", unitID),
			zap.String("lock_state", string(result.LockState)))
	}
	return result, locked, nil
}

func (s *Service) Unlock(ctx context.Context, unitID string, actor auditdomain.Actor, reason string) (*soadomain.Statement, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, soadomain.ErrNotFound
	}

	var result *soadomain.Statement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt, err := s.stmtRepo.WithTrx(tx).FindOne(ctx, &soadomain.Statement{UnitID: id})
		if err != nil {
			return err
		}
		if stmt == nil {
			return soadomain.ErrNotFound
		}

		stmt.LockState = stmt.LockState.Unlock()
		stmt.ConfirmedByBuilderAt = nil
		stmt.ConfirmedByLawyerAt = nil
		stmt.LockedAt = nil

		if err := s.stmtRepo.WithTrx(tx).Save(ctx, stmt); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, auditdomain.ActionStatementUnlock,
			"statement", id.String(), map[string]any{"reason": strings.TrimSpace(reason)}); err != nil {
			return err
		}
		result = stmt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUnlock()
	s.notifier.Dispatch(ctx, notification.Event{
		Kind:      notification.KindStatementUnlocked,
		UnitID:    id,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
	})
	return result, nil
}

func (s *Service) RecordUpload(ctx context.Context, unitID string, actor auditdomain.Actor, req soadomain.UploadRequest) (*soadomain.Statement, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, soadomain.ErrNotFound
	}

	var result *soadomain.Statement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt, err := s.stmtRepo.WithTrx(tx).FindOne(ctx, &soadomain.Statement{UnitID: id})
		if err != nil {
			return err
		}
		if stmt == nil {
			return soadomain.ErrNotFound
		}
		if stmt.LockState.Locked() {
			return soadomain.ErrStatementLocked
		}

		next, err := s.nextVersion(ctx, tx, id)
		if err != nil {
			return err
		}

		stmt.TotalVendorCredits = req.TotalVendorCredits
		stmt.TotalPurchaserCredits = req.TotalPurchaserCredits
		stmt.BalanceDueOnClosing = req.BalanceDueOnClosing
		stmt.CashRequiredToClose = req.CashRequiredToClose
		stmt.LawyerUploaded = true
		stmt.CalculationVersion = next

		version := soadomain.StatementVersion{
			ID:                    s.genID.Generate(),
			UnitID:                id,
			VersionNumber:         next,
			Source:                soadomain.VersionSourceUpload,
			ActorID:               actor.ID,
			ActorRole:             actor.Role,
			TotalVendorCredits:    req.TotalVendorCredits,
			TotalPurchaserCredits: req.TotalPurchaserCredits,
			BalanceDueOnClosing:   req.BalanceDueOnClosing,
			CashRequiredToClose:   req.CashRequiredToClose,
			CreatedAt:             s.clock.Now(),
		}
		if err := s.versionRepo.WithTrx(tx).Create(ctx, &version); err != nil {
			return err
		}
		if err := s.stmtRepo.WithTrx(tx).Save(ctx, stmt); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, auditdomain.ActionStatementUpload,
			"statement", id.String(), map[string]any{"version": next}); err != nil {
			return err
		}
		result = stmt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Kind:      notification.KindStatementUploaded,
		UnitID:    id,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
	})
	return result, nil
}

func (s *Service) ListVersions(ctx context.Context, unitID string) ([]soadomain.StatementVersion, error) {
	id, err := parseID(unitID)
	if err != nil {
		return nil, soadomain.ErrNotFound
	}

	var versions []soadomain.StatementVersion
	if err := s.db.WithContext(ctx).
		Where("unit_id = ?", id).
		Order("version_number desc").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// nextVersion returns the next gapless version number for a unit. Must
// run inside the transaction that inserts the row so concurrent writers
// serialize on the unique (unit_id, version_number) index.
func (s *Service) nextVersion(ctx context.Context, tx *gorm.DB, unitID snowflake.ID) (int, error) {
	var last int
	err := tx.WithContext(ctx).
		Model(&soadomain.StatementVersion{}).
		Where("unit_id = ?", unitID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// loadCalcInput flattens the unit's entity graph into a calculation
// context.
func (s *Service) loadCalcInput(ctx context.Context, tx *gorm.DB, unitID snowflake.ID) (soadomain.CalcInput, error) {
	var in soadomain.CalcInput

	unit, err := s.unitRepo.WithTrx(tx).FindOne(ctx, &unitdomain.Unit{ID: unitID})
	if err != nil {
		return in, err
	}
	if unit == nil {
		return in, unitdomain.ErrNotFound
	}
	in.Unit = *unit

	project, err := s.projectRepo.WithTrx(tx).FindOne(ctx, &projectdomain.Project{ID: unit.ProjectID})
	if err != nil {
		return in, err
	}
	if project == nil {
		return in, projectdomain.ErrNotFound
	}
	in.Project = *project

	projectFees, err := s.projectFeeRepo.WithTrx(tx).Find(ctx, &projectdomain.ProjectFee{ProjectID: project.ID})
	if err != nil {
		return in, err
	}
	for _, fee := range projectFees {
		in.ProjectFees = append(in.ProjectFees, *fee)
	}

	levyCaps, err := s.levyCapRepo.WithTrx(tx).Find(ctx, &projectdomain.LevyCap{ProjectID: project.ID})
	if err != nil {
		return in, err
	}
	for _, cap := range levyCaps {
		in.LevyCaps = append(in.LevyCaps, *cap)
	}

	unitFees, err := s.unitFeeRepo.WithTrx(tx).Find(ctx, &unitdomain.UnitFee{UnitID: unitID})
	if err != nil {
		return in, err
	}
	for _, fee := range unitFees {
		in.UnitFees = append(in.UnitFees, *fee)
	}

	occFees, err := s.occFeeRepo.WithTrx(tx).Find(ctx, &unitdomain.OccupancyFee{UnitID: unitID})
	if err != nil {
		return in, err
	}
	for _, fee := range occFees {
		in.OccupancyFees = append(in.OccupancyFees, *fee)
	}

	deposits, err := s.depositRepo.WithTrx(tx).Find(ctx, &depositdomain.Deposit{UnitID: unitID})
	if err != nil {
		return in, err
	}
	in.RatePeriods = make(map[snowflake.ID][]depositdomain.RatePeriod, len(deposits))
	for _, dep := range deposits {
		in.Deposits = append(in.Deposits, *dep)
		periods, err := s.ratePeriodRepo.WithTrx(tx).Find(ctx, &depositdomain.RatePeriod{DepositID: dep.ID})
		if err != nil {
			return in, err
		}
		for _, p := range periods {
			in.RatePeriods[dep.ID] = append(in.RatePeriods[dep.ID], *p)
		}
	}

	purchasers, err := s.purchaserRepo.WithTrx(tx).Find(ctx, &unitdomain.Purchaser{UnitID: unitID})
	if err != nil {
		return in, err
	}
	for _, p := range purchasers {
		if p.IsPrimary {
			in.Purchaser = p
			break
		}
	}
	if in.Purchaser == nil && len(purchasers) > 0 {
		in.Purchaser = purchasers[0]
	}

	if in.SystemFees.HCRA, err = s.fees.EffectiveFee(ctx, feedomain.FeeKeyHCRA); err != nil {
		return in, err
	}
	if in.SystemFees.ElectronicRegistration, err = s.fees.EffectiveFee(ctx, feedomain.FeeKeyElectronicRegistration); err != nil {
		return in, err
	}
	if in.SystemFees.StatusCertificate, err = s.fees.EffectiveFee(ctx, feedomain.FeeKeyStatusCertificate); err != nil {
		return in, err
	}
	if in.SystemFees.TransactionLevy, err = s.fees.EffectiveFee(ctx, feedomain.FeeKeyTransactionLevy); err != nil {
		return in, err
	}

	in.Now = s.clock.Now()
	return in, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
