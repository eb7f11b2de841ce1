package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
)

func (s *Server) ResolveRate(c *gin.Context) {
	serviceCode := strings.TrimSpace(c.Query("service_code"))
	if serviceCode == "" {
		AbortWithError(c, ratedomain.ErrInvalidServiceCode)
		return
	}

	var accountID snowflake.ID
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		accountID = snowflake.ID(id)
	}

	var classCode *string
	if raw := strings.TrimSpace(c.Query("class_code")); raw != "" {
		classCode = &raw
	}

	resolved, err := s.rateSvc.Resolve(c.Request.Context(), accountID, serviceCode, classCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolved)
}

type createAdjustmentsRequest struct {
	Adjustments []ratedomain.AdjustmentEntry `json:"adjustments"`
}

func (s *Server) CreateAdjustments(c *gin.Context) {
	accountID, err := parseID(c.Param("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createAdjustmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.rateSvc.CreateAdjustments(c.Request.Context(), snowflake.ID(accountID), req.Adjustments)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListAdjustments(c *gin.Context) {
	accountID, err := parseID(c.Param("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	adjustments, err := s.rateSvc.ListAdjustments(c.Request.Context(), snowflake.ID(accountID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments})
}

func (s *Server) UpdateAdjustment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req ratedomain.UpdateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	adjustment, err := s.rateSvc.UpdateAdjustment(c.Request.Context(), snowflake.ID(id), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, adjustment)
}

func (s *Server) DeleteAdjustment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.rateSvc.DeleteAdjustment(c.Request.Context(), snowflake.ID(id)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
