package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	depositdomain "github.com/oakline/closedesk/internal/deposit/domain"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	unitdomain "github.com/oakline/closedesk/internal/unit/domain"
	"github.com/oakline/closedesk/pkg/money"
	"github.com/shopspring/decimal"
)

// SystemFees are the four admin-configured fees resolved through the fee
// schedule before calculation.
type SystemFees struct {
	HCRA                   decimal.Decimal
	ElectronicRegistration decimal.Decimal
	StatusCertificate      decimal.Decimal
	TransactionLevy        decimal.Decimal
}

// CalcInput is the fully-resolved calculation context for one unit. The
// repositories flatten the entity graph into this struct at the
// calculation boundary so Calculate stays pure.
type CalcInput struct {
	Unit          unitdomain.Unit
	Project       projectdomain.Project
	ProjectFees   []projectdomain.ProjectFee
	LevyCaps      []projectdomain.LevyCap
	UnitFees      []unitdomain.UnitFee
	OccupancyFees []unitdomain.OccupancyFee
	Deposits      []depositdomain.Deposit
	RatePeriods   map[snowflake.ID][]depositdomain.RatePeriod
	Purchaser     *unitdomain.Purchaser
	SystemFees    SystemFees
	Now           time.Time
}

var (
	hstRate        = money.D("0.13")
	gstRate        = money.D("0.05")
	pstRate        = money.D("0.08")
	fedRebateShare = money.D("0.36")
	ontRebateShare = money.D("0.75")

	fedRebateCap      = money.D("6300")
	ontRebateCap      = money.D("24000")
	fedRebateFloor    = money.D("350000")
	fedRebateCeiling  = money.D("450000")
	fedRebatePhaseDiv = money.D("100000")

	provincialFTBCap = money.D("4000")
	torontoFTBCap    = money.D("4475")

	defaultTaxRateOfPrice = money.D("0.01")
	defaultMonthlyPerSqft = money.D("0.60")
)

// Ontario land transfer tax tiers, marginal. Toronto's municipal tax uses
// the same tier structure with its own first-time-buyer rebate cap.
var lttTiers = []struct {
	upTo decimal.Decimal // zero upTo marks the open-ended top tier
	rate decimal.Decimal
}{
	{money.D("55000"), money.D("0.005")},
	{money.D("250000"), money.D("0.01")},
	{money.D("400000"), money.D("0.015")},
	{money.D("2000000"), money.D("0.02")},
	{decimal.Zero, money.D("0.025")},
}

// Tarion warranty enrolment fee brackets by total price.
var tarionBrackets = []struct {
	upTo decimal.Decimal
	fee  decimal.Decimal
}{
	{money.D("100000"), money.D("300")},
	{money.D("150000"), money.D("400")},
	{money.D("200000"), money.D("500")},
	{money.D("250000"), money.D("600")},
	{money.D("300000"), money.D("700")},
	{money.D("400000"), money.D("850")},
	{money.D("500000"), money.D("1000")},
	{money.D("600000"), money.D("1200")},
	{money.D("700000"), money.D("1450")},
	{money.D("800000"), money.D("1700")},
	{money.D("1000000"), money.D("2000")},
	{decimal.Zero, money.D("2450")},
}

// Calculate derives a full statement from the calculation context. It is
// side-effect free; persistence, versioning and locking live in the
// service layer.
func Calculate(in CalcInput) Statement {
	unit := in.Unit
	totalPrice := unit.TotalPrice()

	closing := in.Now
	if unit.ClosingDate != nil {
		closing = *unit.ClosingDate
	}

	st := Statement{
		UnitID:       unit.ID,
		CalculatedAt: in.Now,
	}

	// Land transfer taxes.
	st.LandTransferTax = landTransferTax(totalPrice, unit.FirstTimeBuyer, provincialFTBCap)
	if in.Project.IsTorontoArea() {
		st.TorontoLandTransferTax = landTransferTax(totalPrice, unit.FirstTimeBuyer, torontoFTBCap)
	}

	// Development charges against the levy cap.
	devCharges := sumProjectFees(in.ProjectFees, projectdomain.FeeTypeDevelopmentCharges)
	st.DevelopmentCharges = devCharges
	if cap, ok := findLevyCap(in.LevyCaps, string(projectdomain.FeeTypeDevelopmentCharges)); ok && devCharges.GreaterThan(cap.CapAmount) {
		if cap.ExcessResponsibility == projectdomain.ExcessAbsorbedByBuilder {
			st.DevelopmentCharges = cap.CapAmount
			st.BuilderAbsorbedLevies = devCharges.Sub(cap.CapAmount)
		}
	}

	st.EducationDevelopmentCharges = sumProjectFees(in.ProjectFees, projectdomain.FeeTypeEDC)
	st.ParklandLevy = sumProjectFees(in.ProjectFees, projectdomain.FeeTypeParklandLevy)
	st.CommunityBenefitCharge = sumProjectFees(in.ProjectFees, projectdomain.FeeTypeCommunityBenefit)

	st.TarionFee = tarionFee(totalPrice)

	st.UtilityConnectionFees = sumProjectFees(in.ProjectFees,
		projectdomain.FeeTypeUtilityConnection,
		projectdomain.FeeTypeSewerConnection,
		projectdomain.FeeTypeWaterConnection,
		projectdomain.FeeTypeHydroConnection,
		projectdomain.FeeTypeGasConnection,
		projectdomain.FeeTypeMeterInstallation,
	)

	st.PropertyTaxAdjustment = propertyTaxAdjustment(unit, closing)
	st.CommonExpenseAdjustment = commonExpenseAdjustment(unit, closing)

	// Occupancy fees.
	for _, fee := range in.OccupancyFees {
		st.OccupancyFeesChargeable = st.OccupancyFeesChargeable.Add(fee.Amount)
		if fee.IsPaid {
			st.OccupancyFeesPaid = st.OccupancyFeesPaid.Add(fee.Amount)
		}
	}
	st.OccupancyFeesOwing = st.OccupancyFeesChargeable.Sub(st.OccupancyFeesPaid)

	if unit.HasParking {
		st.ParkingPrice = unit.ParkingPrice
	}
	if unit.HasLocker {
		st.LockerPrice = unit.LockerPrice
	}

	// Unit fee rows: non-credit rows are upgrades, credit rows are bucketed
	// by name.
	for _, fee := range in.UnitFees {
		if !fee.IsCredit {
			st.UpgradeFees = st.UpgradeFees.Add(fee.Amount)
			continue
		}
		switch fee.Category() {
		case unitdomain.CreditDesign:
			st.DesignCredits = st.DesignCredits.Add(fee.Amount)
		case unitdomain.CreditFreeUpgrade:
			st.FreeUpgradeValue = st.FreeUpgradeValue.Add(fee.Amount)
		case unitdomain.CreditCashBack:
			st.CashBackCredits = st.CashBackCredits.Add(fee.Amount)
		default:
			st.OtherCredits = st.OtherCredits.Add(fee.Amount)
		}
	}

	st.LegalFeeEstimate = legalFeeEstimate(in.ProjectFees, unit.PurchasePrice)

	// HST and the new-housing rebate.
	st.HSTPayable = money.Round2(totalPrice.Mul(hstRate))
	if unit.PrimaryResidence {
		st.FederalHSTRebate = federalRebate(totalPrice)
		st.OntarioHSTRebate = ontarioRebate(totalPrice)
	}
	st.NetHSTPayable = st.HSTPayable.Sub(st.FederalHSTRebate).Sub(st.OntarioHSTRebate)

	st.HCRAFee = in.SystemFees.HCRA
	st.ElectronicRegistrationFee = in.SystemFees.ElectronicRegistration
	st.StatusCertificateFee = in.SystemFees.StatusCertificate
	st.TransactionLevyFee = in.SystemFees.TransactionLevy

	// Purchaser credits.
	for _, dep := range in.Deposits {
		if dep.IsPaid {
			st.DepositsPaid = st.DepositsPaid.Add(dep.Amount)
		}
	}
	interest := depositdomain.CalculateInterest(in.Deposits, in.RatePeriods, closing)
	st.DepositInterest = interest.Total
	st.InterestOnInterest = depositdomain.InterestOnInterest(
		interest.Total, interest.LastAnnualRate, unit.OccupancyDate, unit.ClosingDate)

	if unit.SecurityDeposit.IsPositive() {
		st.SecurityDepositRefund = unit.SecurityDeposit
	}

	if in.Purchaser != nil {
		st.MortgageAmount = money.Coalesce(in.Purchaser.MortgageApprovedAmount)
	}

	hstCharged := st.HSTPayable
	if unit.HSTRebateToBuilder {
		hstCharged = st.NetHSTPayable
	}

	st.TotalVendorCredits = sum(
		st.LandTransferTax,
		st.TorontoLandTransferTax,
		st.DevelopmentCharges,
		st.EducationDevelopmentCharges,
		st.ParklandLevy,
		st.CommunityBenefitCharge,
		st.TarionFee,
		st.UtilityConnectionFees,
		st.PropertyTaxAdjustment,
		st.CommonExpenseAdjustment,
		st.OccupancyFeesChargeable,
		st.ParkingPrice,
		st.LockerPrice,
		st.UpgradeFees,
		st.LegalFeeEstimate,
		hstCharged,
		st.HCRAFee,
		st.ElectronicRegistrationFee,
		st.StatusCertificateFee,
		st.TransactionLevyFee,
	)

	st.TotalPurchaserCredits = sum(
		st.DepositsPaid,
		st.DepositInterest,
		st.InterestOnInterest,
		st.OccupancyFeesPaid,
		st.SecurityDepositRefund,
		st.DesignCredits,
		st.FreeUpgradeValue,
		st.CashBackCredits,
		st.OtherCredits,
	)

	st.BalanceDueOnClosing = st.TotalVendorCredits.Sub(st.TotalPurchaserCredits)
	st.CashRequiredToClose = st.BalanceDueOnClosing.Sub(st.MortgageAmount)

	return st
}

// landTransferTax applies the marginal tier schedule and, for first-time
// buyers, subtracts the rebate up to the given cap.
func landTransferTax(total decimal.Decimal, firstTimeBuyer bool, rebateCap decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	lower := decimal.Zero
	for _, tier := range lttTiers {
		upper := tier.upTo
		if upper.IsZero() || total.LessThan(upper) {
			upper = total
		}
		portion := upper.Sub(lower)
		if portion.IsPositive() {
			tax = tax.Add(portion.Mul(tier.rate))
		}
		if tier.upTo.IsZero() || total.LessThanOrEqual(tier.upTo) {
			break
		}
		lower = tier.upTo
	}
	tax = money.Round2(tax)
	if firstTimeBuyer {
		tax = tax.Sub(money.Min(tax, rebateCap))
	}
	return tax
}

func tarionFee(total decimal.Decimal) decimal.Decimal {
	for _, b := range tarionBrackets {
		if b.upTo.IsZero() || total.LessThanOrEqual(b.upTo) {
			return b.fee
		}
	}
	return decimal.Zero
}

// federalRebate is 36% of the 5% GST portion, capped at $6,300, phased
// out linearly between $350,000 and $450,000.
func federalRebate(total decimal.Decimal) decimal.Decimal {
	if total.GreaterThanOrEqual(fedRebateCeiling) {
		return decimal.Zero
	}
	if total.LessThanOrEqual(fedRebateFloor) {
		rebate := total.Mul(gstRate).Mul(fedRebateShare)
		return money.Round2(money.Min(rebate, fedRebateCap))
	}
	factor := fedRebateCeiling.Sub(total).Div(fedRebatePhaseDiv)
	return money.Round2(fedRebateCap.Mul(factor))
}

// ontarioRebate is 75% of the 8% PST portion, capped at $24,000, with no
// price ceiling.
func ontarioRebate(total decimal.Decimal) decimal.Decimal {
	rebate := total.Mul(pstRate).Mul(ontRebateShare)
	return money.Round2(money.Min(rebate, ontRebateCap))
}

// propertyTaxAdjustment prorates the annual tax over the days of the
// closing year remaining after the closing date. The actual assessed tax
// is used when set; otherwise 1% of the purchase price.
func propertyTaxAdjustment(unit unitdomain.Unit, closing time.Time) decimal.Decimal {
	if unit.ClosingDate == nil {
		return decimal.Zero
	}
	annual := unit.ActualAnnualPropertyTax
	if !annual.IsPositive() {
		annual = unit.PurchasePrice.Mul(defaultTaxRateOfPrice)
	}
	yearEnd := time.Date(closing.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
	remaining := int(yearEnd.Sub(dateOf(closing)).Hours() / 24)
	if remaining <= 0 {
		return decimal.Zero
	}
	return money.Round2(annual.Mul(decimal.NewFromInt(int64(remaining))).Div(money.D("365")))
}

// commonExpenseAdjustment prorates the monthly common-expense fee over
// the days of the closing month remaining after the closing date. The
// actual fee is used when set; otherwise $0.60 per square foot.
func commonExpenseAdjustment(unit unitdomain.Unit, closing time.Time) decimal.Decimal {
	if unit.ClosingDate == nil {
		return decimal.Zero
	}
	monthly := unit.ActualMonthlyCommonExpense
	if !monthly.IsPositive() {
		monthly = unit.SquareFootage.Mul(defaultMonthlyPerSqft)
	}
	daysInMonth := time.Date(closing.Year(), closing.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	remaining := daysInMonth - closing.Day()
	if remaining <= 0 {
		return decimal.Zero
	}
	return money.Round2(monthly.
		Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(daysInMonth))))
}

func legalFeeEstimate(fees []projectdomain.ProjectFee, price decimal.Decimal) decimal.Decimal {
	if override := sumProjectFees(fees, projectdomain.FeeTypeLegal); override.IsPositive() {
		return override
	}
	switch {
	case price.LessThanOrEqual(money.D("500000")):
		return money.D("1500")
	case price.LessThanOrEqual(money.D("1000000")):
		return money.D("2000")
	default:
		return money.D("2500")
	}
}

func sumProjectFees(fees []projectdomain.ProjectFee, types ...projectdomain.FeeType) decimal.Decimal {
	total := decimal.Zero
	for _, fee := range fees {
		for _, t := range types {
			if fee.FeeType == t {
				total = total.Add(fee.Amount)
				break
			}
		}
	}
	return total
}

func findLevyCap(caps []projectdomain.LevyCap, category string) (projectdomain.LevyCap, bool) {
	for _, cap := range caps {
		if cap.Matches(category) {
			return cap, true
		}
	}
	return projectdomain.LevyCap{}, false
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
