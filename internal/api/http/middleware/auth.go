package middleware

import (
	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/gin-gonic/gin"
)

const UsernameKey = "username"

// JWTAuth rejects the request with 401 before any handler runs unless it
// carries a valid bearer token.
func JWTAuth(guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := guard.ValidateHeader(c.GetHeader("Authorization"))
		if err != nil {
			apiErr := apierror.Unauthorized()
			c.AbortWithStatusJSON(apiErr.Status, dto.NewErrorResponse(apiErr))
			return
		}

		c.Set(UsernameKey, claims.Username())
		c.Next()
	}
}
