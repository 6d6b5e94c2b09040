package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/oakline/closedesk/internal/audit/domain"
	soadomain "github.com/oakline/closedesk/internal/soa/domain"
	"github.com/shopspring/decimal"
)

type actorRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r actorRequest) actor() auditdomain.Actor {
	role := strings.TrimSpace(r.Role)
	if role == "" {
		role = "staff"
	}
	return auditdomain.Actor{ID: strings.TrimSpace(r.UserID), Role: role}
}

func (s *Server) GetStatement(c *gin.Context) {
	stmt, err := s.statementSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt})
}

// CalculateStatement recomputes the statement. With a user_id in the
// body the run is attributed: a version row is appended and audited.
func (s *Server) CalculateStatement(c *gin.Context) {
	var req actorRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	unitID := c.Param("id")
	var (
		stmt *soadomain.Statement
		err  error
	)
	if strings.TrimSpace(req.UserID) != "" {
		stmt, err = s.statementSvc.RecalculateAndRecord(c.Request.Context(), unitID, req.actor())
	} else {
		stmt, err = s.statementSvc.Recalculate(c.Request.Context(), unitID)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt})
}

// RecalculateStatement is the unattributed refresh: no version row, no
// audit entry.
func (s *Server) RecalculateStatement(c *gin.Context) {
	stmt, err := s.statementSvc.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt})
}

func (s *Server) ConfirmStatement(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("user_id", "missing_user_id", "user_id is required"))
		return
	}

	role := soadomain.ConfirmRole(strings.TrimSpace(req.Role))
	stmt, err := s.statementSvc.Confirm(c.Request.Context(), c.Param("id"), role, req.actor())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt})
}

func (s *Server) LockStatement(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("user_id", "missing_user_id", "user_id is required"))
		return
	}

	stmt, locked, err := s.statementSvc.Lock(c.Request.Context(), c.Param("id"), req.actor())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt, "locked": locked})
}

type unlockRequest struct {
	actorRequest
	Reason string `json:"reason"`
}

func (s *Server) UnlockStatement(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("user_id", "missing_user_id", "user_id is required"))
		return
	}

	stmt, err := s.statementSvc.Unlock(c.Request.Context(), c.Param("id"), req.actor(), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt})
}

type uploadStatementRequest struct {
	actorRequest
	TotalVendorCredits    decimal.Decimal `json:"total_vendor_credits"`
	TotalPurchaserCredits decimal.Decimal `json:"total_purchaser_credits"`
	BalanceDueOnClosing   decimal.Decimal `json:"balance_due_on_closing"`
	CashRequiredToClose   decimal.Decimal `json:"cash_required_to_close"`
}

func (s *Server) UploadStatement(c *gin.Context) {
	var req uploadStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		AbortWithError(c, newValidationError("user_id", "missing_user_id", "user_id is required"))
		return
	}

	stmt, err := s.statementSvc.RecordUpload(c.Request.Context(), c.Param("id"), req.actor(), soadomain.UploadRequest{
		TotalVendorCredits:    req.TotalVendorCredits,
		TotalPurchaserCredits: req.TotalPurchaserCredits,
		BalanceDueOnClosing:   req.BalanceDueOnClosing,
		CashRequiredToClose:   req.CashRequiredToClose,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stmt})
}

func (s *Server) ListStatementVersions(c *gin.Context) {
	versions, err := s.statementSvc.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": versions})
}
