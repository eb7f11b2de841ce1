package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
)

func (s *Server) CreateCharge(c *gin.Context) {
	var req eventdomain.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	event, err := s.eventSvc.CreateCharge(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

type createChargesRequest struct {
	Charges []eventdomain.CreateChargeRequest `json:"charges"`
}

func (s *Server) CreateCharges(c *gin.Context) {
	var req createChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if len(req.Charges) == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	events, err := s.eventSvc.CreateCharges(c.Request.Context(), req.Charges)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"events": events})
}
