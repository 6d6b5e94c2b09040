// Package domain contains persistence models for projects and their
// fee/levy configuration.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// FeeType classifies project-level charges.
type FeeType string

const (
	FeeTypeDevelopmentCharges FeeType = "development_charges"
	FeeTypeEDC                FeeType = "education_development_charges"
	FeeTypeParklandLevy       FeeType = "parkland_levy"
	FeeTypeCommunityBenefit   FeeType = "community_benefit_charge"
	FeeTypeUtilityConnection  FeeType = "utility_connection"
	FeeTypeSewerConnection    FeeType = "sewer_connection"
	FeeTypeWaterConnection    FeeType = "water_connection"
	FeeTypeHydroConnection    FeeType = "hydro_connection"
	FeeTypeGasConnection      FeeType = "gas_connection"
	FeeTypeMeterInstallation  FeeType = "meter_installation"
	FeeTypeLegal              FeeType = "legal"
	FeeTypeOther              FeeType = "other"
)

// ExcessResponsibility names who absorbs charges above a levy cap.
type ExcessResponsibility string

const (
	ExcessAbsorbedByBuilder ExcessResponsibility = "builder"
	ExcessPassedToBuyer     ExcessResponsibility = "buyer"
)

// Project is a pre-construction condominium project.
type Project struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	City      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Project) TableName() string { return "projects" }

// ProjectFee is a typed project-level charge applied to every unit.
type ProjectFee struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	ProjectID snowflake.ID    `gorm:"not null;index"`
	FeeType   FeeType         `gorm:"type:text;not null"`
	Name      string          `gorm:"type:text;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProjectFee) TableName() string { return "project_fees" }

// LevyCap is a contractual ceiling on a category of development charges.
// Category is matched against fee categories by substring, case-insensitive
// ("Development" matches development charges).
type LevyCap struct {
	ID                   snowflake.ID         `gorm:"primaryKey"`
	ProjectID            snowflake.ID         `gorm:"not null;index"`
	Category             string               `gorm:"type:text;not null"`
	CapAmount            decimal.Decimal      `gorm:"type:numeric(14,2);not null"`
	ExcessResponsibility ExcessResponsibility `gorm:"type:text;not null"`
	CreatedAt            time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (LevyCap) TableName() string { return "levy_caps" }

// Matches reports whether the cap applies to the given category name.
func (c LevyCap) Matches(category string) bool {
	return strings.Contains(strings.ToLower(category), strings.ToLower(strings.TrimSpace(c.Category)))
}

// ProjectFinancials is the shared capital pool consumed by every unsold
// unit in the project.
type ProjectFinancials struct {
	ID                snowflake.ID    `gorm:"primaryKey"`
	ProjectID         snowflake.ID    `gorm:"not null;uniqueIndex"`
	TotalRevenue      decimal.Decimal `gorm:"type:numeric(16,2);not null"`
	TotalInvestment   decimal.Decimal `gorm:"type:numeric(16,2);not null"`
	MarketingCost     decimal.Decimal `gorm:"type:numeric(16,2);not null"`
	ProfitAvailable   decimal.Decimal `gorm:"type:numeric(16,2);not null"`
	MaxBuilderCapital decimal.Decimal `gorm:"type:numeric(16,2);not null"`
	UpdatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProjectFinancials) TableName() string { return "project_financials" }

// torontoAreaCities drives municipal land-transfer-tax applicability.
var torontoAreaCities = map[string]struct{}{
	"toronto":     {},
	"etobicoke":   {},
	"north york":  {},
	"scarborough": {},
	"east york":   {},
	"york":        {},
}

// IsTorontoArea reports whether the project city attracts the Toronto
// municipal land transfer tax.
func (p Project) IsTorontoArea() bool {
	_, ok := torontoAreaCities[strings.ToLower(strings.TrimSpace(p.City))]
	return ok
}
