package lifecycle

import (
	"github.com/gin-gonic/gin"

	"github.com/DhavalSuthar-24/arena/internal/common"
	"github.com/DhavalSuthar-24/arena/internal/user"
	"github.com/DhavalSuthar-24/arena/pkg/responses"
)

// requireSession rejects the request before its body is read unless the
// bearer token is valid and, when roles are given, carries one of them.
// The engine still authorizes each operation on its own.
func requireSession(engine *Engine, roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := engine.Authenticate(c.Request.Context(), common.GetTokenFromContext(c), roles...); err != nil {
			responses.DomainErrorResponse(c, err)
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts the match, user and session endpoints on router.
func RegisterRoutes(router *gin.RouterGroup, engine *Engine) {
	lc := NewLifecycleController(engine)
	signedIn := requireSession(engine)
	admin := requireSession(engine, user.RoleAdmin)

	matches := router.Group("/matches")
	{
		// Public (token optional)
		matches.GET("", lc.ListMatches)
		matches.GET("/:id", lc.GetMatch)
		matches.GET("/:id/players", lc.ListPlayers)

		// Authenticated players
		matches.GET("/:id/details", signedIn, lc.ViewDetails)
		matches.POST("/:id/join", signedIn, lc.JoinMatch)
		matches.POST("/:id/exit", signedIn, lc.ExitMatch)

		// Admin
		matches.POST("", admin, lc.CreateMatch)
		matches.PUT("/:id", admin, lc.UpdateMatch)
		matches.DELETE("/:id", admin, lc.DeleteMatch)
		matches.PATCH("/:id/status", admin, lc.SetStatus)
		matches.PUT("/:id/room-details", admin, lc.SetRoomDetails)
	}

	users := router.Group("/users", admin)
	{
		users.GET("", lc.ListUsers)
		users.PUT("/:id/ban", lc.BanUser)
	}

	sessions := router.Group("/auth")
	{
		sessions.GET("/session", lc.CheckSession)
		sessions.POST("/logout", lc.Logout)
	}
}
