package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Userride/gmail-var-backend/internal/handlers"
)

func SetupRoutes(r *gin.Engine, authHandler *handlers.AuthHandler) *gin.Engine {
	// ---- public (вся поверхность публичная)
	r.GET("/", handlers.Health)
	r.POST("/register", authHandler.Register)
	r.GET("/verify/:token", authHandler.Verify)
	r.POST("/login", authHandler.Login)

	return r
}
