package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	depositdomain "github.com/oakline/closedesk/internal/deposit/domain"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/oakline/closedesk/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestLandTransferTax_MarginalTiers(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"54999", "275.00"},
		{"55000", "275.00"},
		{"55001", "275.01"},
		{"250000", "2225.00"},
		{"400000", "4475.00"},
		{"500000", "6475.00"},
		{"2000000", "36475.00"},
		{"2000001", "36475.03"},
		{"3000000", "61475.00"},
	}
	for _, c := range cases {
		got := landTransferTax(money.D(c.price), false, provincialFTBCap)
		assert.Equal(t, c.want, got.StringFixed(2), "price %s", c.price)
	}
}

func TestLandTransferTax_FirstTimeBuyerRebate(t *testing.T) {
	// Tax below the cap is rebated in full, never below zero.
	got := landTransferTax(money.D("300000"), true, provincialFTBCap)
	assert.True(t, got.IsZero())

	// Above the cap only the cap is rebated.
	got = landTransferTax(money.D("500000"), true, provincialFTBCap)
	assert.Equal(t, "2475.00", got.StringFixed(2))

	// Toronto's municipal rebate cap is higher.
	got = landTransferTax(money.D("500000"), true, torontoFTBCap)
	assert.Equal(t, "2000.00", got.StringFixed(2))
}

func TestTarionFee_Brackets(t *testing.T) {
	cases := []struct {
		price string
		want  string
	}{
		{"100000", "300"},
		{"100001", "400"},
		{"250000", "600"},
		{"555000", "1200"},
		{"1000000", "2000"},
		{"1500000", "2450"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, tarionFee(money.D(c.price)).String(), "price %s", c.price)
	}
}

func TestHSTRebates(t *testing.T) {
	// Below the federal phase-out floor both rebates apply in full.
	assert.Equal(t, "5400.00", federalRebate(money.D("300000")).StringFixed(2))
	assert.Equal(t, "18000.00", ontarioRebate(money.D("300000")).StringFixed(2))

	// Inside the phase-out band the federal rebate shrinks linearly.
	assert.Equal(t, "3150.00", federalRebate(money.D("400000")).StringFixed(2))

	// At and above the ceiling the federal rebate is gone; Ontario's caps.
	assert.True(t, federalRebate(money.D("450000")).IsZero())
	assert.Equal(t, "24000.00", ontarioRebate(money.D("500000")).StringFixed(2))
}

func calcFixture(t *testing.T) CalcInput {
	t.Helper()
	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	unitID := node.Generate()
	projectID := node.Generate()
	depID := node.Generate()
	mortgage := money.D("300000")

	return CalcInput{
		Unit: unitdomain.Unit{
			ID:                         unitID,
			ProjectID:                  projectID,
			PurchasePrice:              money.D("500000"),
			HasParking:                 true,
			ParkingPrice:               money.D("50000"),
			HasLocker:                  true,
			LockerPrice:                money.D("5000"),
			SquareFootage:              money.D("700"),
			OccupancyDate:              datePtr(2025, time.January, 1),
			ClosingDate:                datePtr(2025, time.June, 15),
			PrimaryResidence:           true,
			HSTRebateToBuilder:         true,
			ActualAnnualPropertyTax:    money.D("4000"),
			ActualMonthlyCommonExpense: money.D("600"),
			SecurityDeposit:            money.D("1000"),
		},
		Project: projectdomain.Project{ID: projectID, Name: "Lakeview Terraces", City: "North York"},
		ProjectFees: []projectdomain.ProjectFee{
			{ProjectID: projectID, FeeType: projectdomain.FeeTypeDevelopmentCharges, Amount: money.D("8000")},
			{ProjectID: projectID, FeeType: projectdomain.FeeTypeEDC, Amount: money.D("1000")},
			{ProjectID: projectID, FeeType: projectdomain.FeeTypeParklandLevy, Amount: money.D("500")},
			{ProjectID: projectID, FeeType: projectdomain.FeeTypeCommunityBenefit, Amount: money.D("250")},
			{ProjectID: projectID, FeeType: projectdomain.FeeTypeSewerConnection, Amount: money.D("300")},
			{ProjectID: projectID, FeeType: projectdomain.FeeTypeHydroConnection, Amount: money.D("200")},
		},
		LevyCaps: []projectdomain.LevyCap{
			{ProjectID: projectID, Category: "development", CapAmount: money.D("5000"),
				ExcessResponsibility: projectdomain.ExcessAbsorbedByBuilder},
		},
		UnitFees: []unitdomain.UnitFee{
			{UnitID: unitID, Name: "Kitchen upgrade package", Amount: money.D("10000")},
			{UnitID: unitID, Name: "Design credit", Amount: money.D("1500"), IsCredit: true},
			{UnitID: unitID, Name: "Cash back promo", Amount: money.D("2000"), IsCredit: true},
			{UnitID: unitID, Name: "Goodwill adjustment", Amount: money.D("300"), IsCredit: true},
		},
		OccupancyFees: []unitdomain.OccupancyFee{
			{UnitID: unitID, Period: "2025-04", Amount: money.D("2000"), IsPaid: true},
			{UnitID: unitID, Period: "2025-05", Amount: money.D("2000")},
		},
		Deposits: []depositdomain.Deposit{
			{ID: depID, UnitID: unitID, Amount: money.D("50000"), IsPaid: true,
				PaidDate: datePtr(2024, time.December, 1)},
		},
		RatePeriods: map[snowflake.ID][]depositdomain.RatePeriod{
			depID: {{DepositID: depID, StartDate: date(2025, time.January, 1),
				EndDate: date(2025, time.June, 30), AnnualRate: money.D("1.5")}},
		},
		Purchaser: &unitdomain.Purchaser{
			UnitID: unitID, IsPrimary: true, MortgageApprovedAmount: &mortgage,
		},
		SystemFees: SystemFees{
			HCRA:                   money.D("145"),
			ElectronicRegistration: money.D("80.52"),
			StatusCertificate:      money.D("100"),
			TransactionLevy:        money.D("65"),
		},
		Now: date(2025, time.March, 1),
	}
}

func TestCalculate_LineItems(t *testing.T) {
	st := Calculate(calcFixture(t))

	// Total price 555,000 drives LTT, Tarion and HST.
	assert.Equal(t, "7575.00", st.LandTransferTax.StringFixed(2))
	assert.Equal(t, "7575.00", st.TorontoLandTransferTax.StringFixed(2), "North York is Toronto-area")
	assert.Equal(t, "1200.00", st.TarionFee.StringFixed(2))

	assert.Equal(t, "5000.00", st.DevelopmentCharges.StringFixed(2))
	assert.Equal(t, "3000.00", st.BuilderAbsorbedLevies.StringFixed(2))
	assert.Equal(t, "500.00", st.UtilityConnectionFees.StringFixed(2))

	// 199 days of the year remain after June 15: 4000 * 199/365.
	assert.Equal(t, "2180.82", st.PropertyTaxAdjustment.StringFixed(2))
	// 15 of June's 30 days remain: 600 * 15/30.
	assert.Equal(t, "300.00", st.CommonExpenseAdjustment.StringFixed(2))

	assert.Equal(t, "4000.00", st.OccupancyFeesChargeable.StringFixed(2))
	assert.Equal(t, "2000.00", st.OccupancyFeesPaid.StringFixed(2))
	assert.Equal(t, "2000.00", st.OccupancyFeesOwing.StringFixed(2))

	assert.Equal(t, "10000.00", st.UpgradeFees.StringFixed(2))
	assert.Equal(t, "1500.00", st.DesignCredits.StringFixed(2))
	assert.Equal(t, "2000.00", st.CashBackCredits.StringFixed(2))
	assert.Equal(t, "300.00", st.OtherCredits.StringFixed(2))

	// Purchase price sits at the $500k legal bracket boundary.
	assert.Equal(t, "1500.00", st.LegalFeeEstimate.StringFixed(2))

	assert.Equal(t, "72150.00", st.HSTPayable.StringFixed(2))
	assert.True(t, st.FederalHSTRebate.IsZero(), "above the federal rebate ceiling")
	assert.Equal(t, "24000.00", st.OntarioHSTRebate.StringFixed(2))
	assert.Equal(t, "48150.00", st.NetHSTPayable.StringFixed(2))

	// Rate period clipped to Jan 1 - Jun 15, 166 days inclusive.
	assert.Equal(t, "50000.00", st.DepositsPaid.StringFixed(2))
	assert.Equal(t, "341.10", st.DepositInterest.StringFixed(2))
	assert.Equal(t, "2.31", st.InterestOnInterest.StringFixed(2))

	assert.Equal(t, "1000.00", st.SecurityDepositRefund.StringFixed(2))
	assert.Equal(t, "300000.00", st.MortgageAmount.StringFixed(2))
}

func TestCalculate_TotalsIdentities(t *testing.T) {
	st := Calculate(calcFixture(t))

	vendor := sum(
		st.LandTransferTax, st.TorontoLandTransferTax,
		st.DevelopmentCharges, st.EducationDevelopmentCharges,
		st.ParklandLevy, st.CommunityBenefitCharge,
		st.TarionFee, st.UtilityConnectionFees,
		st.PropertyTaxAdjustment, st.CommonExpenseAdjustment,
		st.OccupancyFeesChargeable,
		st.ParkingPrice, st.LockerPrice, st.UpgradeFees,
		st.LegalFeeEstimate, st.NetHSTPayable,
		st.HCRAFee, st.ElectronicRegistrationFee,
		st.StatusCertificateFee, st.TransactionLevyFee,
	)
	purchaser := sum(
		st.DepositsPaid, st.DepositInterest, st.InterestOnInterest,
		st.OccupancyFeesPaid, st.SecurityDepositRefund,
		st.DesignCredits, st.FreeUpgradeValue, st.CashBackCredits, st.OtherCredits,
	)

	assert.True(t, st.TotalVendorCredits.Equal(vendor))
	assert.True(t, st.TotalPurchaserCredits.Equal(purchaser))
	assert.True(t, st.BalanceDueOnClosing.Equal(st.TotalVendorCredits.Sub(st.TotalPurchaserCredits)))
	assert.True(t, st.CashRequiredToClose.Equal(st.BalanceDueOnClosing.Sub(st.MortgageAmount)))
}

func TestCalculate_TotalsIdentitiesHoldAcrossRandomInputs(t *testing.T) {
	// The balance and cash identities must survive any mix of prices,
	// deposits and credits, not just the fixture's.
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		in := calcFixture(t)
		in.Unit.PurchasePrice = decimal.NewFromInt(rng.Int63n(3_000_000) + 100_000)
		in.Unit.ParkingPrice = decimal.NewFromInt(rng.Int63n(80_000))
		in.Unit.LockerPrice = decimal.NewFromInt(rng.Int63n(10_000))
		in.Unit.FirstTimeBuyer = rng.Intn(2) == 0
		in.Unit.HSTRebateToBuilder = rng.Intn(2) == 0
		in.Deposits[0].Amount = decimal.NewFromInt(rng.Int63n(200_000))
		mortgage := decimal.NewFromInt(rng.Int63n(2_000_000))
		in.Purchaser.MortgageApprovedAmount = &mortgage
		if rng.Intn(4) == 0 {
			in.Purchaser = nil
		}

		st := Calculate(in)
		assert.True(t, st.BalanceDueOnClosing.Equal(st.TotalVendorCredits.Sub(st.TotalPurchaserCredits)),
			"iteration %d: balance %s vendor %s purchaser %s",
			i, st.BalanceDueOnClosing, st.TotalVendorCredits, st.TotalPurchaserCredits)
		assert.True(t, st.CashRequiredToClose.Equal(st.BalanceDueOnClosing.Sub(st.MortgageAmount)),
			"iteration %d: cash %s balance %s mortgage %s",
			i, st.CashRequiredToClose, st.BalanceDueOnClosing, st.MortgageAmount)
	}
}

func TestCalculate_HSTRebateRetainedByPurchaser(t *testing.T) {
	in := calcFixture(t)
	in.Unit.HSTRebateToBuilder = false
	st := Calculate(in)

	// Full HST is charged; the purchaser claims the rebates directly.
	withRebate := Calculate(calcFixture(t))
	diff := st.TotalVendorCredits.Sub(withRebate.TotalVendorCredits)
	assert.True(t, diff.Equal(st.FederalHSTRebate.Add(st.OntarioHSTRebate)))
}

func TestCalculate_LevyCapPassedToBuyer(t *testing.T) {
	in := calcFixture(t)
	in.LevyCaps[0].ExcessResponsibility = projectdomain.ExcessPassedToBuyer
	st := Calculate(in)

	assert.Equal(t, "8000.00", st.DevelopmentCharges.StringFixed(2))
	assert.True(t, st.BuilderAbsorbedLevies.IsZero())
}

func TestCalculate_MissingClosingDateDegrades(t *testing.T) {
	in := calcFixture(t)
	in.Unit.ClosingDate = nil
	st := Calculate(in)

	assert.True(t, st.PropertyTaxAdjustment.IsZero())
	assert.True(t, st.CommonExpenseAdjustment.IsZero())
	// Interest accrues up to Now instead: Jan 1 - Mar 1, 60 days inclusive.
	assert.Equal(t, "123.29", st.DepositInterest.StringFixed(2))
	assert.True(t, st.InterestOnInterest.IsZero())
}

func TestCalculate_NoPurchaserMeansNoMortgage(t *testing.T) {
	in := calcFixture(t)
	in.Purchaser = nil
	st := Calculate(in)

	assert.True(t, st.MortgageAmount.IsZero())
	assert.True(t, st.CashRequiredToClose.Equal(st.BalanceDueOnClosing))
}

func TestCalculate_DefaultProrationsWhenActualsUnset(t *testing.T) {
	in := calcFixture(t)
	in.Unit.ActualAnnualPropertyTax = decimal.Zero
	in.Unit.ActualMonthlyCommonExpense = decimal.Zero
	st := Calculate(in)

	// 1% of purchase price prorated over 199 remaining days.
	assert.Equal(t, "2726.03", st.PropertyTaxAdjustment.StringFixed(2))
	// $0.60/sqft * 700 = 420/month, half of June remaining.
	assert.Equal(t, "210.00", st.CommonExpenseAdjustment.StringFixed(2))
}
