package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/warehq/warebill/internal/invoice/domain"
)

func (s *Server) CreateInvoiceDrafts(c *gin.Context) {
	var req invoicedomain.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	drafts, err := s.invoiceSvc.CreateDraft(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if drafts == nil {
		drafts = []invoicedomain.InvoiceDraft{}
	}

	c.JSON(http.StatusCreated, gin.H{"drafts": drafts})
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	draft, err := s.invoiceSvc.GetByID(c.Request.Context(), snowflake.ID(id))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, draft)
}

func (s *Server) MarkInvoiceSent(c *gin.Context) {
	s.transitionInvoice(c, s.invoiceSvc.MarkSent)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	s.transitionInvoice(c, s.invoiceSvc.MarkPaid)
}

type voidInvoiceRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) VoidInvoice(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req voidInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
	}

	if err := s.invoiceSvc.VoidDraft(c.Request.Context(), snowflake.ID(id), req.Reason); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "void"})
}

func (s *Server) transitionInvoice(c *gin.Context, transition func(ctx context.Context, id snowflake.ID) error) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := transition(c.Request.Context(), snowflake.ID(id)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
