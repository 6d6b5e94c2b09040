// Package domain contains the admin-editable flat fee schedule.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Well-known fee keys consumed by the statement calculator.
// These keys are ENGINE-CONSTANTS. Do NOT rename or repurpose once used
// in statements.
const (
	FeeKeyHCRA                   = "hcra_fee"
	FeeKeyElectronicRegistration = "electronic_registration"
	FeeKeyStatusCertificate      = "status_certificate"
	FeeKeyTransactionLevy        = "transaction_levy"
)

// FeeSchedule is one keyed flat fee. HSTApplicable fees are grossed up by
// 13% when resolved; HSTIncluded fees already carry tax in the amount.
type FeeSchedule struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Key           string          `gorm:"type:text;not null;uniqueIndex"`
	Name          string          `gorm:"type:text;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	HSTApplicable bool            `gorm:"not null;default:false"`
	HSTIncluded   bool            `gorm:"not null;default:false"`

	IsEnabled bool `gorm:"column:is_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeeSchedule) TableName() string { return "fee_schedules" }

func (f *FeeSchedule) Validate() error {
	if f.Key == "" {
		return ErrInvalidFeeKey
	}
	if f.Amount.IsNegative() {
		return ErrInvalidFeeAmount
	}
	if f.HSTApplicable && f.HSTIncluded {
		return ErrConflictingHSTFlags
	}
	return nil
}
