// Package domain contains deposit models and the deposit interest
// calculator.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Deposit is one purchaser deposit against a unit.
type Deposit struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	UnitID snowflake.ID `gorm:"not null;index"`

	Amount   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	IsPaid   bool            `gorm:"not null;default:false"`
	PaidDate *time.Time
	Holder   string `gorm:"type:text"`

	InterestEligible bool `gorm:"not null;default:true"`
	// Flat annual rate in percent (3 fractional digits); used only when no
	// rate periods exist for the deposit.
	FlatAnnualRate decimal.Decimal `gorm:"type:numeric(7,3);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Deposit) TableName() string { return "deposits" }

// RatePeriod is one government-prescribed interest rate window for a
// deposit. Periods for a deposit never overlap.
type RatePeriod struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	DepositID snowflake.ID `gorm:"not null;index"`

	StartDate  time.Time       `gorm:"not null"`
	EndDate    time.Time       `gorm:"not null"`
	AnnualRate decimal.Decimal `gorm:"type:numeric(7,3);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RatePeriod) TableName() string { return "deposit_rate_periods" }
