package common

import (
	"github.com/gin-gonic/gin"
)

const (
	// Context keys
	ContextTokenKey     = "bearerToken" // raw bearer token, possibly empty
	ContextRequestIDKey = "requestID"
)

// GetTokenFromContext returns the bearer token stored by the auth
// middleware, or "" for anonymous requests.
func GetTokenFromContext(c *gin.Context) string {
	raw, exists := c.Get(ContextTokenKey)
	if !exists {
		return ""
	}
	token, _ := raw.(string)
	return token
}

// GetRequestID returns the request id assigned by the request-id middleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}
