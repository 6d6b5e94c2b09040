package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	"github.com/oakline/closedesk/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var hstGrossUp = decimal.RequireFromString("1.13")

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  feedomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  feedomain.Repository
}

func NewService(p serviceParams) feedomain.Service {
	return &Service{
		log:   p.Log.Named("feeschedule.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// EffectiveFee resolves a fee key to its tax-in amount. HST-applicable
// fees are grossed up by 13% and rounded to cents; HST-included and
// non-taxable fees pass through unchanged. Unknown or disabled keys
// resolve to zero.
func (s *Service) EffectiveFee(ctx context.Context, key string) (decimal.Decimal, error) {
	fee, err := s.repo.FindByKey(ctx, strings.TrimSpace(key))
	if err != nil {
		return decimal.Zero, err
	}
	if fee == nil || !fee.IsEnabled {
		return decimal.Zero, nil
	}
	if fee.HSTApplicable {
		return fee.Amount.Mul(hstGrossUp).Round(2), nil
	}
	return fee.Amount, nil
}

func (s *Service) Create(ctx context.Context, req feedomain.CreateRequest) (*feedomain.Response, error) {
	isEnabled := true
	if req.IsEnabled != nil {
		isEnabled = *req.IsEnabled
	}

	now := time.Now().UTC()
	record := &feedomain.FeeSchedule{
		ID:            s.genID.Generate(),
		Key:           strings.TrimSpace(req.Key),
		Name:          strings.TrimSpace(req.Name),
		Amount:        req.Amount,
		HSTApplicable: req.HSTApplicable,
		HSTIncluded:   req.HSTIncluded,
		IsEnabled:     isEnabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, feedomain.ErrDuplicateFeeKey
		}
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req feedomain.ListRequest) ([]feedomain.Response, error) {
	items, err := s.repo.List(ctx, feedomain.ListRequest{
		Key:       strings.TrimSpace(req.Key),
		IsEnabled: req.IsEnabled,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]feedomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req feedomain.UpdateRequest) (*feedomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return nil, feedomain.ErrInvalidID
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, feedomain.ErrNotFound
	}

	if req.Name != nil {
		record.Name = strings.TrimSpace(*req.Name)
	}
	if req.Amount != nil {
		record.Amount = *req.Amount
	}
	if req.HSTApplicable != nil {
		record.HSTApplicable = *req.HSTApplicable
	}
	if req.HSTIncluded != nil {
		record.HSTIncluded = *req.HSTIncluded
	}
	record.UpdatedAt = time.Now().UTC()

	if err := record.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) Disable(ctx context.Context, rawID string) (*feedomain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, feedomain.ErrInvalidID
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, feedomain.ErrNotFound
	}

	record.IsEnabled = false
	record.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func toResponse(fee *feedomain.FeeSchedule) feedomain.Response {
	return feedomain.Response{
		ID:            fee.ID.String(),
		Key:           fee.Key,
		Name:          fee.Name,
		Amount:        fee.Amount,
		HSTApplicable: fee.HSTApplicable,
		HSTIncluded:   fee.HSTIncluded,
		IsEnabled:     fee.IsEnabled,
		CreatedAt:     fee.CreatedAt,
		UpdatedAt:     fee.UpdatedAt,
	}
}
