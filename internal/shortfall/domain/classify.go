package domain

import (
	"fmt"

	"github.com/oakline/closedesk/pkg/money"
	"github.com/shopspring/decimal"
)

// Input is the flattened financing picture for one unit.
type Input struct {
	PurchasePrice       decimal.Decimal
	CashRequiredToClose decimal.Decimal
	DepositsPaid        decimal.Decimal

	// Purchaser financing. Pointers distinguish "not submitted" from a
	// submitted zero.
	MortgageApproved *decimal.Decimal
	CreditScore      *int
	DeclaredFunds    *decimal.Decimal
	CashAvailable    *decimal.Decimal
	AppraisedValue   *decimal.Decimal

	// Per-unit shares of the project's capital pools. HasFinancials is
	// false when the project has no financials row; suggestions then fall
	// back to covering the whole gap.
	ProfitShare   decimal.Decimal
	VTBShare      decimal.Decimal
	HasFinancials bool
}

// Result is the classification outcome.
type Result struct {
	ShortfallAmount   decimal.Decimal
	ShortfallPercent  decimal.Decimal
	Scenario          Scenario
	RiskTier          RiskTier
	SuggestedDiscount decimal.Decimal
	SuggestedVTB      decimal.Decimal
	// MutualReleaseThreshold is the recovery level at which releasing the
	// purchaser beats closing; nil when the unit has no appraisal below
	// its contract price.
	MutualReleaseThreshold *decimal.Decimal
	Recommendation         string
}

var (
	discountBand  = decimal.NewFromInt(10)
	vtbSecondBand = decimal.NewFromInt(20)
	vtbFirstBand  = decimal.NewFromInt(50)

	riskLowBand    = decimal.NewFromInt(5)
	riskMediumBand = decimal.NewFromInt(15)
	riskHighBand   = decimal.NewFromInt(25)

	goodCreditFloor = 700
	poorCreditCeil  = 600

	vtbFirstPriceShare = money.D("0.75")
	releaseLossShare   = decimal.NewFromInt(3)
)

// Classify grades a unit's shortfall and sizes the discount and
// vendor-take-back suggestions against the available capital shares.
func Classify(in Input) Result {
	shortfall := money.NonNegative(in.CashRequiredToClose.Sub(additionalCash(in)))
	pct := money.Percent(shortfall, in.PurchasePrice)

	res := Result{
		ShortfallAmount:        shortfall,
		ShortfallPercent:       pct,
		MutualReleaseThreshold: mutualReleaseThreshold(in),
	}

	res.Scenario = scenario(in, shortfall, pct)
	res.RiskTier = riskTier(in, pct)
	res.SuggestedDiscount, res.SuggestedVTB = allocate(in, res.Scenario, shortfall)
	res.Recommendation = recommendation(res)
	return res
}

func additionalCash(in Input) decimal.Decimal {
	if in.DeclaredFunds != nil {
		return *in.DeclaredFunds
	}
	if in.CashAvailable != nil {
		return *in.CashAvailable
	}
	return decimal.Zero
}

func scenario(in Input, shortfall, pct decimal.Decimal) Scenario {
	// Mutual release preempts every tier, including Proceed: when walking
	// away is cheaper than closing, it stays cheaper no matter how well
	// funded the purchaser is.
	if mutualReleaseCheaper(in) {
		return ScenarioMutualRelease
	}
	if !shortfall.IsPositive() {
		return ScenarioProceed
	}

	switch {
	case pct.LessThanOrEqual(discountBand):
		return ScenarioCloseWithDiscount
	case pct.LessThanOrEqual(vtbSecondBand):
		return ScenarioVTBSecondMortgage
	case pct.LessThanOrEqual(vtbFirstBand) && in.CreditScore != nil && *in.CreditScore >= goodCreditFloor:
		return ScenarioVTBFirstMortgage
	case pct.GreaterThan(vtbFirstBand) && (in.CreditScore == nil || *in.CreditScore < poorCreditCeil):
		return ScenarioHighRiskDefault
	default:
		return ScenarioCombinationSuggestion
	}
}

// mutualReleaseThreshold is the contract price less a third of the value
// drop. Nil when the unit has no appraisal or appraises at or above its
// price.
func mutualReleaseThreshold(in Input) *decimal.Decimal {
	if in.AppraisedValue == nil {
		return nil
	}
	appraised := *in.AppraisedValue
	if !appraised.IsPositive() || appraised.GreaterThanOrEqual(in.PurchasePrice) {
		return nil
	}
	drop := in.PurchasePrice.Sub(appraised)
	threshold := money.Round2(in.PurchasePrice.Sub(drop.Div(releaseLossShare)))
	return &threshold
}

// mutualReleaseCheaper reports whether walking away costs the builder
// less than closing: the forfeited deposits plus the buyer's cash cover
// at least the release threshold.
func mutualReleaseCheaper(in Input) bool {
	threshold := mutualReleaseThreshold(in)
	if threshold == nil {
		return false
	}
	recoverable := in.DepositsPaid.Add(additionalCash(in))
	return recoverable.GreaterThanOrEqual(*threshold)
}

func riskTier(in Input, pct decimal.Decimal) RiskTier {
	if in.MortgageApproved == nil {
		return RiskVeryHigh
	}
	switch {
	case pct.LessThanOrEqual(riskLowBand):
		return RiskLow
	case pct.LessThanOrEqual(riskMediumBand):
		return RiskMedium
	case pct.LessThanOrEqual(riskHighBand):
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

func allocate(in Input, sc Scenario, shortfall decimal.Decimal) (discount, vtb decimal.Decimal) {
	discount = decimal.Zero
	vtb = decimal.Zero

	if !in.HasFinancials {
		// No capital constraints on record; suggest covering the gap
		// through the scenario's own instrument.
		switch sc {
		case ScenarioCloseWithDiscount:
			return shortfall, decimal.Zero
		case ScenarioVTBSecondMortgage, ScenarioVTBFirstMortgage:
			return decimal.Zero, shortfall
		default:
			return
		}
	}

	switch sc {
	case ScenarioCloseWithDiscount, ScenarioCombinationSuggestion:
		discount = money.Min(shortfall, money.NonNegative(in.ProfitShare))
		vtb = money.Min(shortfall.Sub(discount), money.NonNegative(in.VTBShare))
	case ScenarioVTBSecondMortgage:
		vtb = money.Min(shortfall, money.NonNegative(in.VTBShare))
	case ScenarioVTBFirstMortgage:
		cap := money.Min(in.PurchasePrice.Mul(vtbFirstPriceShare), money.NonNegative(in.VTBShare))
		vtb = money.Min(shortfall, cap)
	}
	return
}

func recommendation(res Result) string {
	switch res.Scenario {
	case ScenarioProceed:
		return "Purchaser funds cover closing; proceed as scheduled."
	case ScenarioCloseWithDiscount:
		return fmt.Sprintf("Offer a closing discount of up to $%s to bridge the gap.", res.SuggestedDiscount.StringFixed(2))
	case ScenarioVTBSecondMortgage:
		return fmt.Sprintf("Offer a vendor take-back second mortgage of $%s.", res.SuggestedVTB.StringFixed(2))
	case ScenarioVTBFirstMortgage:
		return fmt.Sprintf("Purchaser qualifies for a vendor take-back first mortgage of $%s.", res.SuggestedVTB.StringFixed(2))
	case ScenarioHighRiskDefault:
		return "High default risk; prepare for enforcement and relisting."
	case ScenarioCombinationSuggestion:
		return fmt.Sprintf("Combine a $%s discount with a $%s vendor take-back.", res.SuggestedDiscount.StringFixed(2), res.SuggestedVTB.StringFixed(2))
	case ScenarioMutualRelease:
		return "Releasing the purchaser and relisting costs less than closing; negotiate a mutual release."
	}
	return ""
}
