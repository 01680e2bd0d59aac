package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DhavalSuthar-24/arena/internal/common"
)

// BearerToken stores the raw bearer token, if any, under
// common.ContextTokenKey. It does not validate the token; the session guard
// does that per operation so anonymous reads can pass through.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		bearerToken := strings.Fields(authHeader)
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "Invalid Authorization header format. Expected: Bearer <token>",
				"code":    http.StatusUnauthorized,
				"reason":  string(common.KindUnauthenticated),
			})
			return
		}

		c.Set(common.ContextTokenKey, bearerToken[1])
		c.Next()
	}
}

// RequestID tags each request with an id, reusing a client-supplied
// X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(common.ContextRequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
