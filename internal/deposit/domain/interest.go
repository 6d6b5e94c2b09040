package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var daysPerYear = decimal.NewFromInt(365)

// InterestResult is the outcome of a deposit interest calculation for one
// unit.
type InterestResult struct {
	// Total interest across all paid deposits, each deposit rounded to
	// cents before summing.
	Total decimal.Decimal
	// PerDeposit holds the rounded interest per deposit.
	PerDeposit map[snowflake.ID]decimal.Decimal
	// LastAnnualRate is the annual rate of the latest rate period that
	// produced interest (flat rate when no periods applied). It drives the
	// interest-on-interest calculation.
	LastAnnualRate decimal.Decimal
}

// CalculateInterest computes simple interest for every paid deposit up to
// the closing date. Deposits with rate periods accrue per period, clipped
// to [paidDate, closingDate]; deposits without periods fall back to their
// flat rate when interest-eligible. Unpaid deposits and deposits without a
// paid date do not participate.
func CalculateInterest(deposits []Deposit, periods map[snowflake.ID][]RatePeriod, closing time.Time) InterestResult {
	result := InterestResult{
		Total:      decimal.Zero,
		PerDeposit: make(map[snowflake.ID]decimal.Decimal, len(deposits)),
	}

	var lastEnd time.Time
	var lastPaid time.Time

	for _, dep := range deposits {
		if !dep.IsPaid || dep.PaidDate == nil {
			continue
		}

		paid := dateOf(*dep.PaidDate)
		end := dateOf(closing)
		if end.Before(paid) {
			continue
		}

		accrued := decimal.Zero
		depPeriods := periods[dep.ID]
		if len(depPeriods) > 0 {
			for _, p := range depPeriods {
				start, stop, ok := clip(dateOf(p.StartDate), dateOf(p.EndDate), paid, end)
				if !ok {
					continue
				}
				days := daysInclusive(start, stop)
				accrued = accrued.Add(simpleInterest(dep.Amount, p.AnnualRate, days))
				if stop.After(lastEnd) {
					lastEnd = stop
					result.LastAnnualRate = p.AnnualRate
				}
			}
		} else if dep.InterestEligible && dep.FlatAnnualRate.IsPositive() {
			days := daysInclusive(paid, end)
			accrued = simpleInterest(dep.Amount, dep.FlatAnnualRate, days)
			if lastEnd.IsZero() && paid.After(lastPaid) {
				lastPaid = paid
				result.LastAnnualRate = dep.FlatAnnualRate
			}
		}

		rounded := accrued.Round(2)
		result.PerDeposit[dep.ID] = rounded
		result.Total = result.Total.Add(rounded)
	}

	return result
}

// InterestOnInterest applies the last applicable annual rate to the
// accumulated deposit interest over the occupancy-to-closing span. Zero
// when there is no interest, either date is missing, or closing does not
// follow occupancy.
func InterestOnInterest(depositInterest, annualRate decimal.Decimal, occupancy, closing *time.Time) decimal.Decimal {
	if !depositInterest.IsPositive() || annualRate.IsZero() {
		return decimal.Zero
	}
	if occupancy == nil || closing == nil {
		return decimal.Zero
	}
	occ := dateOf(*occupancy)
	cls := dateOf(*closing)
	if !cls.After(occ) {
		return decimal.Zero
	}
	days := daysBetween(occ, cls)
	return simpleInterest(depositInterest, annualRate, days).Round(2)
}

func simpleInterest(amount, annualRatePct decimal.Decimal, days int) decimal.Decimal {
	return amount.
		Mul(annualRatePct.Div(decimal.NewFromInt(100))).
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysPerYear)
}

// clip intersects a rate period with the deposit's holding window.
func clip(periodStart, periodEnd, from, to time.Time) (time.Time, time.Time, bool) {
	start := periodStart
	if from.After(start) {
		start = from
	}
	end := periodEnd
	if to.Before(end) {
		end = to
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// daysInclusive counts calendar days with both endpoints included, the
// convention used by the prescribed-rate tables.
func daysInclusive(start, end time.Time) int {
	return daysBetween(start, end) + 1
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
