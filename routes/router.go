package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/DhavalSuthar-24/arena/internal/auth"
	"github.com/DhavalSuthar-24/arena/internal/lifecycle"
	"github.com/DhavalSuthar-24/arena/internal/middleware"
)

// SetupRoutes builds the gin engine. frontendURL is the only allowed CORS
// origin.
func SetupRoutes(frontendURL string, authService *auth.Service, engine *lifecycle.Engine) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{frontendURL}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	corsCfg.ExposeHeaders = []string{"X-Request-ID"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes
	api := r.Group("/api")
	api.Use(middleware.BearerToken())
	auth.RegisterAuthRoutes(api, authService)
	lifecycle.RegisterRoutes(api, engine)

	return r
}
