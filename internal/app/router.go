package app

import (
	"hunt_backend/docs"
	"hunt_backend/internal/config"
	"hunt_backend/internal/middleware"
	"hunt_backend/internal/model"
	"hunt_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", c.health.HealthCheck)

	authGroup := api.Group("")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerParticipantRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerParticipantRoutes(group *gin.RouterGroup, c *controllers) {
	answers := group.Group("/answers")
	answers.Use(middleware.RoleMiddleware(model.Participant))
	{
		answers.POST("", c.answer.SubmitAnswer)
		answers.GET("/me", c.answer.ListOwnAnswers)
		answers.GET("/me/stats", c.answer.GetStats)
		answers.GET("/location/:locationId", c.answer.GetOwnAnswerForLocation)
		answers.PUT("/:answerId", c.answer.EditAnswer)
	}
}

func (a *App) registerAdminRoutes(group *gin.RouterGroup, c *controllers) {
	admin := group.Group("/admin/answers")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/location/:locationId", c.answer.ListByLocation)
		admin.PATCH("/:answerId/validity", c.answer.SetValidity)
		admin.POST("/sweep", c.sweep.RunSweep)
		admin.GET("/export", c.export.ExportAnswers)
	}
}
