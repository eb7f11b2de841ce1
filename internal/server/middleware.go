package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/warehq/warebill/internal/tenantctx"
)

const HeaderOrg = "X-Org-ID"

// OrgContext resolves the tenant from the X-Org-ID header and injects
// it into the request context. Every /v1 route is tenant-scoped.
func OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		orgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || orgID <= 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), orgID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidRequest
	}
	return id, nil
}
