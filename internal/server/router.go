package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mkarlberg/slotbase-backend/internal/handlers"
	"github.com/mkarlberg/slotbase-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	DeletionHandler *handlers.DeletionHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth())
	{
		admin.POST("/tenants/:id/delete", cfg.DeletionHandler.DeleteTenant)
		admin.POST("/tenants/:id/users/:userId/delete", cfg.DeletionHandler.DeleteUser)
		admin.GET("/deletion-jobs/:id", cfg.DeletionHandler.GetJob)
		admin.POST("/deletion-jobs/:id/cancel", cfg.DeletionHandler.CancelJob)
	}

	return router
}
