// Package domain classifies closing shortfalls and suggests how to
// resolve them within the builder's capital constraints.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Scenario is the recommended path for closing a unit with a funding gap.
type Scenario string

const (
	ScenarioProceed               Scenario = "proceed"
	ScenarioCloseWithDiscount     Scenario = "close_with_discount"
	ScenarioVTBSecondMortgage     Scenario = "vtb_second_mortgage"
	ScenarioVTBFirstMortgage      Scenario = "vtb_first_mortgage"
	ScenarioHighRiskDefault       Scenario = "high_risk_default"
	ScenarioCombinationSuggestion Scenario = "combination_suggestion"
	ScenarioMutualRelease         Scenario = "mutual_release"
)

// RiskTier grades the likelihood the unit fails to close.
type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskVeryHigh RiskTier = "very_high"
)

// Analysis is the persisted outcome of a shortfall run for one unit. One
// row per unit, overwritten on each run.
type Analysis struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	UnitID snowflake.ID `gorm:"not null;uniqueIndex"`

	ShortfallAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ShortfallPercent decimal.Decimal `gorm:"type:numeric(7,2);not null;default:0"`

	Scenario Scenario `gorm:"type:text;not null"`
	RiskTier RiskTier `gorm:"type:text;not null"`

	SuggestedDiscount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	SuggestedVTB      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	// Nil when the unit has no appraisal below its contract price.
	MutualReleaseThreshold *decimal.Decimal `gorm:"type:numeric(14,2)"`

	Recommendation string `gorm:"type:text"`

	AnalyzedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Analysis) TableName() string { return "shortfall_analyses" }
