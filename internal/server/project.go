package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	"github.com/shopspring/decimal"
)

type createProjectRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Create(c.Request.Context(), projectdomain.CreateProjectRequest{
		Name: req.Name,
		City: req.City,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) ListProjects(c *gin.Context) {
	projects, err := s.projectSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) GetProject(c *gin.Context) {
	project, err := s.projectSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

type setFinancialsRequest struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalInvestment   decimal.Decimal `json:"total_investment"`
	MarketingCost     decimal.Decimal `json:"marketing_cost"`
	ProfitAvailable   decimal.Decimal `json:"profit_available"`
	MaxBuilderCapital decimal.Decimal `json:"max_builder_capital"`
}

func (s *Server) SetProjectFinancials(c *gin.Context) {
	var req setFinancialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	financials, err := s.projectSvc.SetFinancials(c.Request.Context(), c.Param("id"), projectdomain.SetFinancialsRequest{
		TotalRevenue:      req.TotalRevenue,
		TotalInvestment:   req.TotalInvestment,
		MarketingCost:     req.MarketingCost,
		ProfitAvailable:   req.ProfitAvailable,
		MaxBuilderCapital: req.MaxBuilderCapital,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": financials})
}

func (s *Server) GetProjectFinancials(c *gin.Context) {
	financials, err := s.projectSvc.GetFinancials(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": financials})
}

func (s *Server) RecomputeProjectSummary(c *gin.Context) {
	var req actorRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "system"
	}

	summary, err := s.rollupSvc.Recompute(c.Request.Context(), c.Param("id"), req.actor())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetProjectSummary(c *gin.Context) {
	summary, err := s.rollupSvc.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}
