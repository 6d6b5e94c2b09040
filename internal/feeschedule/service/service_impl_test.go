package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	"github.com/oakline/closedesk/internal/feeschedule/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) feedomain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&feedomain.FeeSchedule{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return NewService(serviceParams{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(conn),
	})
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEffectiveFee_GrossUpAndPassThrough(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, feedomain.CreateRequest{
		Key:           "hcra_fee",
		Name:          "HCRA regulatory fee",
		Amount:        d("145"),
		HSTApplicable: true,
	})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, feedomain.CreateRequest{
		Key:         "electronic_registration",
		Name:        "Electronic registration",
		Amount:      d("80.52"),
		HSTIncluded: true,
	})
	assert.NoError(t, err)

	// 145 * 1.13 = 163.85, rounded to cents.
	fee, err := svc.EffectiveFee(ctx, "hcra_fee")
	assert.NoError(t, err)
	assert.True(t, fee.Equal(d("163.85")), "got %s", fee)

	// Tax-in amounts pass through untouched.
	fee, err = svc.EffectiveFee(ctx, "electronic_registration")
	assert.NoError(t, err)
	assert.True(t, fee.Equal(d("80.52")), "got %s", fee)
}

func TestEffectiveFee_GrossUpRounding(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, feedomain.CreateRequest{
		Key:           "transaction_levy",
		Name:          "Transaction levy",
		Amount:        d("65"),
		HSTApplicable: true,
	})
	assert.NoError(t, err)

	// 65 * 1.13 = 73.45 exactly.
	fee, err := svc.EffectiveFee(ctx, "transaction_levy")
	assert.NoError(t, err)
	assert.True(t, fee.Equal(d("73.45")), "got %s", fee)
}

func TestEffectiveFee_UnknownKeyResolvesToZero(t *testing.T) {
	svc := newTestService(t)

	fee, err := svc.EffectiveFee(context.Background(), "no_such_key")
	assert.NoError(t, err)
	assert.True(t, fee.IsZero())
}

func TestEffectiveFee_DisabledKeyResolvesToZero(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, feedomain.CreateRequest{
		Key:    "status_certificate",
		Name:   "Status certificate",
		Amount: d("100"),
	})
	assert.NoError(t, err)

	_, err = svc.Disable(ctx, created.ID)
	assert.NoError(t, err)

	fee, err := svc.EffectiveFee(ctx, "status_certificate")
	assert.NoError(t, err)
	assert.True(t, fee.IsZero())
}

func TestCreate_DuplicateKeyRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, feedomain.CreateRequest{Key: "hcra_fee", Name: "HCRA", Amount: d("145")})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, feedomain.CreateRequest{Key: "hcra_fee", Name: "HCRA again", Amount: d("150")})
	assert.ErrorIs(t, err, feedomain.ErrDuplicateFeeKey)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, feedomain.CreateRequest{Key: "", Name: "nameless", Amount: d("10")})
	assert.ErrorIs(t, err, feedomain.ErrInvalidFeeKey)

	_, err = svc.Create(ctx, feedomain.CreateRequest{Key: "neg", Name: "negative", Amount: d("-1")})
	assert.ErrorIs(t, err, feedomain.ErrInvalidFeeAmount)

	_, err = svc.Create(ctx, feedomain.CreateRequest{
		Key: "both", Name: "both flags", Amount: d("10"),
		HSTApplicable: true, HSTIncluded: true,
	})
	assert.ErrorIs(t, err, feedomain.ErrConflictingHSTFlags)
}

func TestUpdate_PartialPatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, feedomain.CreateRequest{Key: "hcra_fee", Name: "HCRA", Amount: d("145"), HSTApplicable: true})
	assert.NoError(t, err)

	amount := d("155")
	updated, err := svc.Update(ctx, feedomain.UpdateRequest{ID: created.ID, Amount: &amount})
	assert.NoError(t, err)
	assert.True(t, updated.Amount.Equal(d("155")))
	assert.Equal(t, "HCRA", updated.Name)
	assert.True(t, updated.HSTApplicable)

	fee, err := svc.EffectiveFee(ctx, "hcra_fee")
	assert.NoError(t, err)
	assert.True(t, fee.Equal(d("175.15")), "got %s", fee)
}

func TestUpdate_UnknownID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), feedomain.UpdateRequest{ID: "999999999999"})
	assert.ErrorIs(t, err, feedomain.ErrNotFound)

	_, err = svc.Update(context.Background(), feedomain.UpdateRequest{ID: "not-a-snowflake"})
	assert.ErrorIs(t, err, feedomain.ErrInvalidID)
}
