package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	eventdomain "github.com/warehq/warebill/internal/billingevent/domain"
	invoicedomain "github.com/warehq/warebill/internal/invoice/domain"
	labordomain "github.com/warehq/warebill/internal/labor/domain"
	promodomain "github.com/warehq/warebill/internal/promo/domain"
	ratedomain "github.com/warehq/warebill/internal/rate/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: validationErrorMessage(err),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, invoicedomain.ErrInvalidStatusTransition),
		errors.Is(err, promodomain.ErrUsageLimitReached),
		errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ratedomain.ErrInvalidAdjustmentType),
		errors.Is(err, ratedomain.ErrInvalidServiceCode),
		errors.Is(err, ratedomain.ErrInvalidAccount),
		errors.Is(err, ratedomain.ErrInvalidOrganization),
		errors.Is(err, eventdomain.ErrInvalidQuantity),
		errors.Is(err, eventdomain.ErrInvalidChargeType),
		errors.Is(err, eventdomain.ErrInvalidAccount),
		errors.Is(err, eventdomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidPeriod),
		errors.Is(err, invoicedomain.ErrInvalidGrouping),
		errors.Is(err, invoicedomain.ErrInvalidGroupingForSelection),
		errors.Is(err, invoicedomain.ErrInvalidAccount),
		errors.Is(err, invoicedomain.ErrInvalidOrganization),
		errors.Is(err, labordomain.ErrInvalidTimeRange),
		errors.Is(err, labordomain.ErrInvalidView),
		errors.Is(err, labordomain.ErrInvalidOrganization),
		errors.Is(err, promodomain.ErrInvalidAccount),
		errors.Is(err, promodomain.ErrInvalidOrganization):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ratedomain.ErrRateNotFound),
		errors.Is(err, ratedomain.ErrAdjustmentNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorMessage(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "_") {
		return strings.ReplaceAll(msg, "_", " ")
	}
	return msg
}
