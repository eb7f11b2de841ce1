package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PreviewDiscount reports the discount an event of the given service and
// total would receive today, without consuming any usage.
func (s *Server) PreviewDiscount(c *gin.Context) {
	accountID, err := parseID(c.Param("account_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	serviceCode := strings.TrimSpace(c.Query("service_code"))
	if serviceCode == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	total, err := decimal.NewFromString(strings.TrimSpace(c.Query("total")))
	if err != nil || total.Sign() < 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	discount, err := s.promoSvc.BestDiscount(c.Request.Context(), snowflake.ID(accountID), serviceCode, total)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if discount == nil {
		c.JSON(http.StatusOK, gin.H{"discount": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"discount": discount})
}
