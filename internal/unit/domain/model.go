// Package domain contains persistence models for units, purchasers and
// per-unit fee rows.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// UnitStatus is the lock-independent operational status of a unit.
type UnitStatus string

const (
	StatusAvailable     UnitStatus = "available"
	StatusSold          UnitStatus = "sold"
	StatusReadyToClose  UnitStatus = "ready_to_close"
	StatusNeedsDiscount UnitStatus = "needs_discount"
	StatusNeedsVTB      UnitStatus = "needs_vtb"
	StatusAtRisk        UnitStatus = "at_risk"
	StatusMutualRelease UnitStatus = "mutual_release"
	StatusClosed        UnitStatus = "closed"
)

// Unit is one saleable suite in a project.
type Unit struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	ProjectID snowflake.ID `gorm:"not null;index"`
	Number    string       `gorm:"type:text;not null"`

	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	HasParking    bool            `gorm:"not null;default:false"`
	ParkingPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	HasLocker     bool            `gorm:"not null;default:false"`
	LockerPrice   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	SquareFootage decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`

	OccupancyDate *time.Time
	ClosingDate   *time.Time
	APSDate       *time.Time

	FirstTimeBuyer   bool `gorm:"not null;default:false"`
	PrimaryResidence bool `gorm:"not null;default:false"`
	// HST new-housing rebate assigned to the builder at closing (the usual
	// pre-construction arrangement).
	HSTRebateToBuilder bool `gorm:"not null;default:true"`

	// Overrides; zero means "use the default formula".
	ActualAnnualPropertyTax decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ActualMonthlyCommonExpense decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	SecurityDeposit decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	Status         UnitStatus `gorm:"type:text;not null;default:'sold'"`
	Recommendation string     `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Unit) TableName() string { return "units" }

// TotalPrice is the purchase price plus parking and locker where applicable.
// Land transfer tax, Tarion and HST are computed on this figure.
func (u Unit) TotalPrice() decimal.Decimal {
	total := u.PurchasePrice
	if u.HasParking {
		total = total.Add(u.ParkingPrice)
	}
	if u.HasLocker {
		total = total.Add(u.LockerPrice)
	}
	return total
}

// Open reports whether the unit still participates in project-level
// allocation (everything except closed units).
func (u Unit) Open() bool { return u.Status != StatusClosed }

// Purchaser holds buyer financing details. Optional money fields are
// pointers: nil means "not yet submitted", a zero value means "submitted
// as zero".
type Purchaser struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	UnitID snowflake.ID `gorm:"not null;index"`
	Name   string       `gorm:"type:text;not null"`

	IsPrimary bool `gorm:"not null;default:true"`

	MortgageApprovedAmount *decimal.Decimal `gorm:"type:numeric(14,2)"`
	CreditScore            *int
	TotalDeclaredFunds     *decimal.Decimal `gorm:"type:numeric(14,2)"`
	CashAvailable          *decimal.Decimal `gorm:"type:numeric(14,2)"`
	AppraisedValue         *decimal.Decimal `gorm:"type:numeric(14,2)"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Purchaser) TableName() string { return "purchasers" }

// UnitFee is a per-unit fee row: upgrades when IsCredit is false, credits
// owed back to the purchaser when true.
type UnitFee struct {
	ID       snowflake.ID    `gorm:"primaryKey"`
	UnitID   snowflake.ID    `gorm:"not null;index"`
	Name     string          `gorm:"type:text;not null"`
	Amount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	IsCredit bool            `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (UnitFee) TableName() string { return "unit_fees" }

// CreditCategory buckets credit rows by name for statement line items.
type CreditCategory string

const (
	CreditDesign      CreditCategory = "design"
	CreditFreeUpgrade CreditCategory = "free_upgrade"
	CreditCashBack    CreditCategory = "cash_back"
	CreditOther       CreditCategory = "other"
)

// Category classifies a credit row by name match.
func (f UnitFee) Category() CreditCategory {
	name := strings.ToLower(f.Name)
	switch {
	case strings.Contains(name, "design"):
		return CreditDesign
	case strings.Contains(name, "upgrade"):
		return CreditFreeUpgrade
	case strings.Contains(name, "cash back"), strings.Contains(name, "cashback"):
		return CreditCashBack
	default:
		return CreditOther
	}
}

// OccupancyFee is one interim-occupancy charge row.
type OccupancyFee struct {
	ID     snowflake.ID    `gorm:"primaryKey"`
	UnitID snowflake.ID    `gorm:"not null;index"`
	Period string          `gorm:"type:text"`
	Amount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	IsPaid bool            `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OccupancyFee) TableName() string { return "occupancy_fees" }
