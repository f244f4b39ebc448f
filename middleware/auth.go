package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/services"
)

type contextKey string

const CallerContextKey contextKey = "caller"

// Authenticator resolves a bearer token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Caller, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
			abort(c, http.StatusUnauthorized, "Invalid token format")
			return
		}

		caller, err := auth.Authenticate(c.Request.Context(), bearerToken[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		SetCaller(c, caller)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed. It must run after
// AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := GetCaller(c)
		if caller == nil {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Insufficient permissions")
	}
}

func SetCaller(c *gin.Context, caller *services.Caller) {
	c.Set(string(CallerContextKey), caller)
}

// GetCaller returns the authenticated caller, or nil on public routes.
func GetCaller(c *gin.Context) *services.Caller {
	value, exists := c.Get(string(CallerContextKey))
	if !exists {
		return nil
	}
	if caller, ok := value.(*services.Caller); ok {
		return caller
	}
	return nil
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}
