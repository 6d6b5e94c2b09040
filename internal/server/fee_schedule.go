package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	"github.com/shopspring/decimal"
)

type createFeeScheduleRequest struct {
	actorRequest
	Key           string          `json:"key"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	HSTApplicable bool            `json:"hst_applicable"`
	HSTIncluded   bool            `json:"hst_included"`
	IsEnabled     *bool           `json:"is_enabled"`
}

func (s *Server) CreateFeeSchedule(c *gin.Context) {
	var req createFeeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feeSvc.Create(c.Request.Context(), feedomain.CreateRequest{
		Key:           strings.TrimSpace(req.Key),
		Name:          strings.TrimSpace(req.Name),
		Amount:        req.Amount,
		HSTApplicable: req.HSTApplicable,
		HSTIncluded:   req.HSTIncluded,
		IsEnabled:     req.IsEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	_ = s.auditSvc.Record(c.Request.Context(), nil, req.actor(), auditdomain.ActionFeeScheduleCreate,
		"fee_schedule", resp.ID, map[string]any{
			"key":    resp.Key,
			"amount": resp.Amount.String(),
		})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeeSchedules(c *gin.Context) {
	var query struct {
		Key       string `form:"key"`
		IsEnabled string `form:"is_enabled"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isEnabled, err := parseOptionalBool(query.IsEnabled)
	if err != nil {
		AbortWithError(c, newValidationError("is_enabled", "invalid_is_enabled", "invalid is_enabled"))
		return
	}

	resp, err := s.feeSvc.List(c.Request.Context(), feedomain.ListRequest{
		Key:       strings.TrimSpace(query.Key),
		IsEnabled: isEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateFeeScheduleRequest struct {
	actorRequest
	Name          *string          `json:"name,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	HSTApplicable *bool            `json:"hst_applicable,omitempty"`
	HSTIncluded   *bool            `json:"hst_included,omitempty"`
}

func (s *Server) UpdateFeeSchedule(c *gin.Context) {
	var req updateFeeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feeSvc.Update(c.Request.Context(), feedomain.UpdateRequest{
		ID:            c.Param("id"),
		Name:          req.Name,
		Amount:        req.Amount,
		HSTApplicable: req.HSTApplicable,
		HSTIncluded:   req.HSTIncluded,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	_ = s.auditSvc.Record(c.Request.Context(), nil, req.actor(), auditdomain.ActionFeeScheduleUpdate,
		"fee_schedule", resp.ID, map[string]any{
			"key":    resp.Key,
			"amount": resp.Amount.String(),
		})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableFeeSchedule(c *gin.Context) {
	var req actorRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.feeSvc.Disable(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	_ = s.auditSvc.Record(c.Request.Context(), nil, req.actor(), auditdomain.ActionFeeScheduleUpdate,
		"fee_schedule", resp.ID, map[string]any{
			"key":      resp.Key,
			"disabled": true,
		})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return nil, nil
	}
	switch raw {
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	return nil, feedomain.ErrInvalidID
}
