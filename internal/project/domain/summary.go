package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProjectSummary is the project-level rollup snapshot: one row per
// project, rebuilt atomically on every recompute.
type ProjectSummary struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	ProjectID snowflake.ID `gorm:"not null;uniqueIndex"`

	TotalUnits int `gorm:"not null;default:0"`
	OpenUnits  int `gorm:"not null;default:0"`

	// StatusCounts buckets open units by operational status.
	StatusCounts datatypes.JSONMap `gorm:"type:jsonb"`
	// ScenarioCounts buckets analyzed units by shortfall scenario;
	// ScenarioPercents carries the same buckets as shares of the analyzed
	// units, in percent with 2 decimals.
	ScenarioCounts   datatypes.JSONMap `gorm:"type:jsonb"`
	ScenarioPercents datatypes.JSONMap `gorm:"type:jsonb"`

	// TotalSalesValue is the contract value of the open units (price plus
	// parking and locker).
	TotalSalesValue decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`

	TotalShortfall         decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	TotalSuggestedDiscount decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	TotalSuggestedVTB      decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	// TotalFundNeeded is the residual gap after discounts and vendor
	// take-backs are applied within the capital constraints.
	TotalFundNeeded decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`

	ProfitAvailable   decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`
	MaxBuilderCapital decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0"`

	RecomputedAt time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProjectSummary) TableName() string { return "project_summaries" }
