package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/apperror"
	appctx "github.com/uppalcrm1/uppalcrm-app-sub000/internal/core/context"
)

// TokenValidator interface for bearer token validation.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates bearer tokens and populates the user context
// with the authorized organization scope. Everything downstream trusts the
// organization ID resolved here.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		if user.OrganizationID == "" {
			abortUnauthorized(c, "token carries no organization scope")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)
		c.Set("organization_id", user.OrganizationID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
