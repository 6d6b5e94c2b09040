package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oakline/closedesk/pkg/money"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestCalculateInterest_SingleRatePeriod(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	depID := node.Generate()

	deposits := []Deposit{
		{ID: depID, Amount: money.D("50000"), IsPaid: true, PaidDate: datePtr(2024, time.December, 1)},
	}
	periods := map[snowflake.ID][]RatePeriod{
		depID: {
			{DepositID: depID, StartDate: date(2025, time.January, 1), EndDate: date(2025, time.June, 30), AnnualRate: money.D("1.5")},
		},
	}

	// Jan 1 through Jun 30 is 181 days inclusive.
	res := CalculateInterest(deposits, periods, date(2025, time.June, 30))
	assert.Equal(t, "371.92", res.Total.StringFixed(2))
	assert.Equal(t, "371.92", res.PerDeposit[depID].StringFixed(2))
	assert.Equal(t, "1.5", res.LastAnnualRate.String())
}

func TestCalculateInterest_ClipsToHoldingWindow(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	depID := node.Generate()

	deposits := []Deposit{
		{ID: depID, Amount: money.D("10000"), IsPaid: true, PaidDate: datePtr(2025, time.March, 1)},
	}
	periods := map[snowflake.ID][]RatePeriod{
		depID: {
			// Starts before the deposit was paid; only Mar 1 onward accrues.
			{DepositID: depID, StartDate: date(2025, time.January, 1), EndDate: date(2025, time.March, 31), AnnualRate: money.D("2")},
		},
	}

	res := CalculateInterest(deposits, periods, date(2025, time.June, 30))
	// Mar 1 through Mar 31 inclusive is 31 days: 10000 * 2% * 31/365.
	assert.Equal(t, "16.99", res.Total.StringFixed(2))
}

func TestCalculateInterest_FlatRateFallback(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	depID := node.Generate()

	deposits := []Deposit{
		{ID: depID, Amount: money.D("20000"), IsPaid: true, PaidDate: datePtr(2025, time.January, 1),
			InterestEligible: true, FlatAnnualRate: money.D("3")},
	}

	res := CalculateInterest(deposits, nil, date(2025, time.January, 31))
	// 31 days inclusive at 3%: 20000 * 3% * 31/365 = 50.96.
	assert.Equal(t, "50.96", res.Total.StringFixed(2))
	assert.Equal(t, "3", res.LastAnnualRate.String())
}

func TestCalculateInterest_SkipsUnpaidAndIneligible(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	unpaid := node.Generate()
	ineligible := node.Generate()

	deposits := []Deposit{
		{ID: unpaid, Amount: money.D("50000"), IsPaid: false, FlatAnnualRate: money.D("3")},
		{ID: ineligible, Amount: money.D("50000"), IsPaid: true, PaidDate: datePtr(2025, time.January, 1),
			InterestEligible: false, FlatAnnualRate: money.D("3")},
	}

	res := CalculateInterest(deposits, nil, date(2025, time.June, 30))
	assert.True(t, res.Total.IsZero())
}

func TestCalculateInterest_MultipleDepositsRoundedIndividually(t *testing.T) {
	node, _ := snowflake.NewNode(1)
	a := node.Generate()
	b := node.Generate()

	deposits := []Deposit{
		{ID: a, Amount: money.D("50000"), IsPaid: true, PaidDate: datePtr(2024, time.December, 1)},
		{ID: b, Amount: money.D("25000"), IsPaid: true, PaidDate: datePtr(2025, time.February, 1)},
	}
	period := RatePeriod{StartDate: date(2025, time.January, 1), EndDate: date(2025, time.June, 30), AnnualRate: money.D("1.5")}
	periods := map[snowflake.ID][]RatePeriod{
		a: {period},
		b: {period},
	}

	res := CalculateInterest(deposits, periods, date(2025, time.June, 30))
	// Second deposit accrues Feb 1 through Jun 30, 150 days inclusive:
	// 25000 * 1.5% * 150/365 = 154.11.
	assert.Equal(t, "154.11", res.PerDeposit[b].StringFixed(2))
	assert.Equal(t, res.PerDeposit[a].Add(res.PerDeposit[b]), res.Total)
}

func TestInterestOnInterest(t *testing.T) {
	occ := datePtr(2025, time.January, 1)
	cls := datePtr(2025, time.June, 30)

	// 180 days between occupancy and closing at 1.5% on 371.92.
	got := InterestOnInterest(money.D("371.92"), money.D("1.5"), occ, cls)
	assert.Equal(t, "2.75", got.StringFixed(2))

	if !InterestOnInterest(money.D("371.92"), money.D("1.5"), nil, cls).IsZero() {
		t.Fatal("expected zero interest-on-interest without an occupancy date")
	}
	if !InterestOnInterest(money.D("0"), money.D("1.5"), occ, cls).IsZero() {
		t.Fatal("expected zero interest-on-interest on zero base interest")
	}
	if !InterestOnInterest(money.D("371.92"), money.D("1.5"), cls, occ).IsZero() {
		t.Fatal("expected zero interest-on-interest when closing precedes occupancy")
	}
}
