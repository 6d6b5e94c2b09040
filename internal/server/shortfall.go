package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) AnalyzeShortfall(c *gin.Context) {
	analysis, err := s.shortfallSvc.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": analysis})
}

func (s *Server) GetShortfall(c *gin.Context) {
	analysis, err := s.shortfallSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": analysis})
}
