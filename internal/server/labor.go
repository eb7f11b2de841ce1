package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
)

func (s *Server) LaborCostReport(c *gin.Context) {
	from, err := parseTimestamp(c.Query("from"))
	if err != nil {
		AbortWithError(c, labordomain.ErrInvalidTimeRange)
		return
	}
	to, err := parseTimestamp(c.Query("to"))
	if err != nil {
		AbortWithError(c, labordomain.ErrInvalidTimeRange)
		return
	}

	view := labordomain.ReportView(strings.TrimSpace(c.DefaultQuery("view", string(labordomain.ViewWarehouseRole))))

	report, err := s.laborSvc.CostReport(c.Request.Context(), labordomain.CostReportRequest{
		From: from,
		To:   to,
		View: view,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidRequest
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
