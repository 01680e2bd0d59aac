package auth

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes mounts the public credential endpoints. Session poll
// and logout live with the lifecycle routes since they go through the
// session guard.
func RegisterAuthRoutes(router *gin.RouterGroup, service *Service) {
	authController := NewAuthController(service)

	authPublic := router.Group("/auth")
	{
		authPublic.POST("/register", authController.Register)
		authPublic.POST("/login", authController.Login)
	}
}
