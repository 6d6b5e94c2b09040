package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	auditrepo "github.com/oakline/closedesk/internal/audit/repository"
	auditservice "github.com/oakline/closedesk/internal/audit/service"
	"github.com/oakline/closedesk/internal/clock"
	depositdomain "github.com/oakline/closedesk/internal/deposit/domain"
	"github.com/oakline/closedesk/internal/notification"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	soadomain "github.com/oakline/closedesk/internal/soa/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubResolver stands in for the fee schedule: every key resolves to a
// flat amount.
type stubResolver struct {
	amount decimal.Decimal
}

func (r stubResolver) EffectiveFee(ctx context.Context, key string) (decimal.Decimal, error) {
	return r.amount, nil
}

type testEnv struct {
	db    *gorm.DB
	svc   soadomain.Service
	clock *clock.FakeClock
	genID *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&projectdomain.Project{},
		&projectdomain.ProjectFee{},
		&projectdomain.LevyCap{},
		&unitdomain.Unit{},
		&unitdomain.Purchaser{},
		&unitdomain.UnitFee{},
		&unitdomain.OccupancyFee{},
		&depositdomain.Deposit{},
		&depositdomain.RatePeriod{},
		&soadomain.Statement{},
		&soadomain.StatementVersion{},
		&auditdomain.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))

	audit := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  auditrepo.Provide(),
	})

	svc := NewService(ServiceParam{
		DB:       conn,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Fees:     stubResolver{amount: decimal.RequireFromString("100")},
		Audit:    audit,
		Notifier: notification.NewLogDispatcher(log),
	})

	return &testEnv{db: conn, svc: svc, clock: fake, genID: node}
}

// seedUnit inserts a unit with a deposit and a financed purchaser and
// returns the unit ID.
func (e *testEnv) seedUnit(t *testing.T) string {
	t.Helper()

	project := projectdomain.Project{ID: e.genID.Generate(), Name: "Lakeside", City: "Mississauga"}
	if err := e.db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	occupancy := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	closing := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	unit := unitdomain.Unit{
		ID:               e.genID.Generate(),
		ProjectID:        project.ID,
		Number:           "801",
		PurchasePrice:    decimal.RequireFromString("500000"),
		SquareFootage:    decimal.RequireFromString("650"),
		OccupancyDate:    &occupancy,
		ClosingDate:      &closing,
		PrimaryResidence: true,
		Status:           unitdomain.StatusSold,
	}
	if err := e.db.Create(&unit).Error; err != nil {
		t.Fatalf("seed unit: %v", err)
	}

	paid := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)
	deposit := depositdomain.Deposit{
		ID:               e.genID.Generate(),
		UnitID:           unit.ID,
		Amount:           decimal.RequireFromString("50000"),
		IsPaid:           true,
		PaidDate:         &paid,
		InterestEligible: true,
		FlatAnnualRate:   decimal.RequireFromString("1.5"),
	}
	if err := e.db.Create(&deposit).Error; err != nil {
		t.Fatalf("seed deposit: %v", err)
	}

	mortgage := decimal.RequireFromString("300000")
	purchaser := unitdomain.Purchaser{
		ID:                     e.genID.Generate(),
		UnitID:                 unit.ID,
		Name:                   "Primary Buyer",
		IsPrimary:              true,
		MortgageApprovedAmount: &mortgage,
	}
	if err := e.db.Create(&purchaser).Error; err != nil {
		t.Fatalf("seed purchaser: %v", err)
	}

	return unit.ID.String()
}

func builder() auditdomain.Actor { return auditdomain.Actor{ID: "u-builder", Role: "builder"} }
func lawyer() auditdomain.Actor  { return auditdomain.Actor{ID: "u-lawyer", Role: "lawyer"} }

func TestRecalculate_CreatesStatementWithConsistentTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	unitID := env.seedUnit(t)

	stmt, err := env.svc.Recalculate(ctx, unitID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	assert.True(t, stmt.BalanceDueOnClosing.Equal(stmt.TotalVendorCredits.Sub(stmt.TotalPurchaserCredits)))
	assert.True(t, stmt.CashRequiredToClose.Equal(stmt.BalanceDueOnClosing.Sub(stmt.MortgageAmount)))
	assert.True(t, stmt.MortgageAmount.Equal(decimal.RequireFromString("300000")))
	assert.Equal(t, soadomain.LockStateUnlocked, stmt.LockState)
	assert.Equal(t, 0, stmt.CalculationVersion)

	// Unattributed recalculation leaves no version trail.
	versions, err := env.svc.ListVersions(ctx, unitID)
	assert.NoError(t, err)
	assert.Empty(t, versions)
}

func TestRecalculate_UnknownUnit(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Recalculate(context.Background(), "123456789")
	assert.ErrorIs(t, err, unitdomain.ErrNotFound)
}

func TestRecalculateAndRecord_VersionNumbersAreGapless(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	unitID := env.seedUnit(t)

	for i := 0; i < 3; i++ {
		if _, err := env.svc.RecalculateAndRecord(ctx, unitID, builder()); err != nil {
			t.Fatalf("recalculate %d: %v", i+1, err)
		}
	}

	stmt, err := env.svc.Get(ctx, unitID)
	assert.NoError(t, err)
	assert.Equal(t, 3, stmt.CalculationVersion)

	versions, err := env.svc.ListVersions(ctx, unitID)
	assert.NoError(t, err)
	if assert.Len(t, versions, 3) {
		// Newest first, no gaps.
		for i, v := range versions {
			assert.Equal(t, 3-i, v.VersionNumber)
			assert.Equal(t, soadomain.VersionSourceCalculation, v.Source)
			assert.Equal(t, "u-builder", v.ActorID)
		}
	}

	var auditCount int64
	env.db.Model(&auditdomain.AuditLog{}).
		Where("action = ?", auditdomain.ActionStatementCalculate).
		Count(&auditCount)
	assert.EqualValues(t, 3, auditCount)
}

func TestLockLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	unitID := env.seedUnit(t)

	if _, err := env.svc.Recalculate(ctx, unitID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	// Lock before anyone confirms is refused, not an error.
	stmt, locked, err := env.svc.Lock(ctx, unitID, builder())
	assert.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, soadomain.LockStateUnlocked, stmt.LockState)

	stmt, err = env.svc.Confirm(ctx, unitID, soadomain.ConfirmRoleBuilder, builder())
	assert.NoError(t, err)
	assert.Equal(t, soadomain.LockStateAwaitingLawyer, stmt.LockState)
	assert.NotNil(t, stmt.ConfirmedByBuilderAt)

	stmt, err = env.svc.Confirm(ctx, unitID, soadomain.ConfirmRoleLawyer, lawyer())
	assert.NoError(t, err)
	assert.Equal(t, soadomain.LockStateReadyToLock, stmt.LockState)

	stmt, locked, err = env.svc.Lock(ctx, unitID, builder())
	assert.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, soadomain.LockStateLocked, stmt.LockState)
	assert.NotNil(t, stmt.LockedAt)

	// Locking a locked statement is a no-op success.
	_, locked, err = env.svc.Lock(ctx, unitID, builder())
	assert.NoError(t, err)
	assert.True(t, locked)

	// Locked statements refuse recalculation and upload.
	_, err = env.svc.Recalculate(ctx, unitID)
	assert.ErrorIs(t, err, soadomain.ErrStatementLocked)
	_, err = env.svc.RecordUpload(ctx, unitID, lawyer(), soadomain.UploadRequest{})
	assert.ErrorIs(t, err, soadomain.ErrStatementLocked)
	_, err = env.svc.Confirm(ctx, unitID, soadomain.ConfirmRoleBuilder, builder())
	assert.ErrorIs(t, err, soadomain.ErrStatementLocked)
}

func TestUnlock_ClearsConfirmationsAndReopens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	unitID := env.seedUnit(t)

	if _, err := env.svc.Recalculate(ctx, unitID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, unitID, soadomain.ConfirmRoleBuilder, builder()); err != nil {
		t.Fatalf("confirm builder: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, unitID, soadomain.ConfirmRoleLawyer, lawyer()); err != nil {
		t.Fatalf("confirm lawyer: %v", err)
	}
	if _, locked, err := env.svc.Lock(ctx, unitID, builder()); err != nil || !locked {
		t.Fatalf("lock: locked=%v err=%v", locked, err)
	}

	stmt, err := env.svc.Unlock(ctx, unitID, builder(), "price amendment")
	assert.NoError(t, err)
	assert.Equal(t, soadomain.LockStateUnlocked, stmt.LockState)
	assert.Nil(t, stmt.ConfirmedByBuilderAt)
	assert.Nil(t, stmt.ConfirmedByLawyerAt)
	assert.Nil(t, stmt.LockedAt)

	// Prior confirmations no longer count toward a fresh lock.
	_, locked, err := env.svc.Lock(ctx, unitID, builder())
	assert.NoError(t, err)
	assert.False(t, locked)

	_, err = env.svc.Recalculate(ctx, unitID)
	assert.NoError(t, err)
}

func TestRecalculate_ResetsConfirmations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	unitID := env.seedUnit(t)

	if _, err := env.svc.Recalculate(ctx, unitID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, unitID, soadomain.ConfirmRoleBuilder, builder()); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stmt, err := env.svc.Recalculate(ctx, unitID)
	assert.NoError(t, err)
	assert.Equal(t, soadomain.LockStateUnlocked, stmt.LockState)
}

func TestConfirm_InvalidRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Confirm(context.Background(), "1", "accountant", builder())
	assert.ErrorIs(t, err, soadomain.ErrInvalidRole)
}

func TestRecordUpload_OverwritesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	unitID := env.seedUnit(t)

	if _, err := env.svc.RecalculateAndRecord(ctx, unitID, builder()); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	req := soadomain.UploadRequest{
		TotalVendorCredits:    decimal.RequireFromString("600000"),
		TotalPurchaserCredits: decimal.RequireFromString("55000"),
		BalanceDueOnClosing:   decimal.RequireFromString("545000"),
		CashRequiredToClose:   decimal.RequireFromString("245000"),
	}
	stmt, err := env.svc.RecordUpload(ctx, unitID, lawyer(), req)
	assert.NoError(t, err)
	assert.True(t, stmt.LawyerUploaded)
	assert.True(t, stmt.TotalVendorCredits.Equal(req.TotalVendorCredits))
	assert.True(t, stmt.CashRequiredToClose.Equal(req.CashRequiredToClose))
	assert.Equal(t, 2, stmt.CalculationVersion)

	versions, err := env.svc.ListVersions(ctx, unitID)
	assert.NoError(t, err)
	if assert.Len(t, versions, 2) {
		assert.Equal(t, soadomain.VersionSourceUpload, versions[0].Source)
		assert.Equal(t, "u-lawyer", versions[0].ActorID)
	}

	// The next calculation supersedes the upload.
	stmt, err = env.svc.Recalculate(ctx, unitID)
	assert.NoError(t, err)
	assert.False(t, stmt.LawyerUploaded)
}

func TestGet_UnknownUnit(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Get(context.Background(), "42")
	assert.ErrorIs(t, err, soadomain.ErrNotFound)
}
