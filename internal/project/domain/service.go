package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type CreateProjectRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type SetFinancialsRequest struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalInvestment   decimal.Decimal `json:"total_investment"`
	MarketingCost     decimal.Decimal `json:"marketing_cost"`
	ProfitAvailable   decimal.Decimal `json:"profit_available"`
	MaxBuilderCapital decimal.Decimal `json:"max_builder_capital"`
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (*Project, error)
	Get(ctx context.Context, projectID string) (*Project, error)
	List(ctx context.Context) ([]Project, error)

	// SetFinancials upserts the project's capital pools.
	SetFinancials(ctx context.Context, projectID string, req SetFinancialsRequest) (*ProjectFinancials, error)
	GetFinancials(ctx context.Context, projectID string) (*ProjectFinancials, error)
}
