package middleware

import (
	"net/http"

	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// AuthzService is a local interface; any type with Enforce fits. The role
// gate lives at this boundary. The workflow engine trusts it and only
// re-checks the manager-of-record relation.
type AuthzService interface {
	Enforce(role, resource, action string) (bool, error)
}

func Authorize(service AuthzService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "Missing auth context")
			c.Abort()
			return
		}

		allowed, err := service.Enforce(role, resource, action)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "Authorization check failed")
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, "You do not have permission to access this resource")
			c.Abort()
			return
		}
		c.Next()
	}
}
