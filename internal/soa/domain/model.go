// Package domain contains the Statement of Adjustments snapshot, its
// append-only version log, and the pure calculation that produces it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Statement is the Statement of Adjustments snapshot for a unit: one row
// per unit, overwritten in place on every recalculation while unlocked.
type Statement struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	UnitID snowflake.ID `gorm:"not null;uniqueIndex"`

	// Vendor-credit side (amounts owed by the purchaser at closing).
	LandTransferTax             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TorontoLandTransferTax      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DevelopmentCharges          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	BuilderAbsorbedLevies       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	EducationDevelopmentCharges decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ParklandLevy                decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CommunityBenefitCharge      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TarionFee                   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	UtilityConnectionFees       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	PropertyTaxAdjustment       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CommonExpenseAdjustment     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OccupancyFeesChargeable     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OccupancyFeesOwing          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ParkingPrice                decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LockerPrice                 decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	UpgradeFees                 decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	LegalFeeEstimate            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	HSTPayable                  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	FederalHSTRebate            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OntarioHSTRebate            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	NetHSTPayable               decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	HCRAFee                     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ElectronicRegistrationFee   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	StatusCertificateFee        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TransactionLevyFee          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	// Purchaser-credit side (amounts credited to the purchaser).
	DepositsPaid          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DepositInterest       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	InterestOnInterest    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OccupancyFeesPaid     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	SecurityDepositRefund decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	DesignCredits         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	FreeUpgradeValue      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CashBackCredits       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	OtherCredits          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	// Totals. BalanceDueOnClosing = TotalVendorCredits - TotalPurchaserCredits
	// and CashRequiredToClose = BalanceDueOnClosing - MortgageAmount hold
	// exactly on every computed statement.
	TotalVendorCredits    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalPurchaserCredits decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	BalanceDueOnClosing   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	MortgageAmount        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CashRequiredToClose   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	CalculationVersion   int        `gorm:"not null;default:0"`
	LockState            LockState  `gorm:"type:text;not null;default:'unlocked'"`
	ConfirmedByBuilderAt *time.Time
	ConfirmedByLawyerAt  *time.Time
	LockedAt             *time.Time
	// A lawyer-uploaded statement supersedes the calculated one until the
	// next recalculation.
	LawyerUploaded bool `gorm:"not null;default:false"`

	CalculatedAt time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Statement) TableName() string { return "statements" }

// VersionSource distinguishes how a version row came to exist.
type VersionSource string

const (
	VersionSourceCalculation VersionSource = "calculation"
	VersionSourceUpload      VersionSource = "upload"
)

// StatementVersion is one row of the append-only audit trail: a new row
// per attributed recalculation or upload, never mutated, never deleted.
// VersionNumber is strictly increasing per unit with no gaps.
type StatementVersion struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	UnitID        snowflake.ID  `gorm:"not null;uniqueIndex:idx_statement_versions_unit_version,priority:1"`
	VersionNumber int           `gorm:"not null;uniqueIndex:idx_statement_versions_unit_version,priority:2"`
	Source        VersionSource `gorm:"type:text;not null"`

	ActorID   string `gorm:"type:text"`
	ActorRole string `gorm:"type:text"`

	TotalVendorCredits    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	TotalPurchaserCredits decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	BalanceDueOnClosing   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CashRequiredToClose   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (StatementVersion) TableName() string { return "statement_versions" }
