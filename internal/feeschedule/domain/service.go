package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Resolver answers the one question the statement calculator asks: what
// does this fee cost, tax in. Unknown or disabled keys resolve to zero —
// an unconfigured fee is not an error.
type Resolver interface {
	EffectiveFee(ctx context.Context, key string) (decimal.Decimal, error)
}

type Service interface {
	Resolver
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Key       string
	IsEnabled *bool
}

type CreateRequest struct {
	Key           string          `json:"key"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	HSTApplicable bool            `json:"hst_applicable"`
	HSTIncluded   bool            `json:"hst_included"`
	IsEnabled     *bool           `json:"is_enabled"`
}

type UpdateRequest struct {
	ID            string           `json:"id"`
	Name          *string          `json:"name,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	HSTApplicable *bool            `json:"hst_applicable,omitempty"`
	HSTIncluded   *bool            `json:"hst_included,omitempty"`
}

type Response struct {
	ID            string          `json:"id"`
	Key           string          `json:"key"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	HSTApplicable bool            `json:"hst_applicable"`
	HSTIncluded   bool            `json:"hst_included"`
	IsEnabled     bool            `json:"is_enabled"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
