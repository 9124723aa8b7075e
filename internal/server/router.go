package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/shaderlabs/shaderlab-backend/internal/handlers"
	"github.com/shaderlabs/shaderlab-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName        string
	AllowOrigins       []string
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	ModuleHandler      *handlers.ModuleHandler
	TaskHandler        *handlers.TaskHandler
	SubmissionHandler  *handlers.SubmissionHandler
	ProgressHandler    *handlers.ProgressHandler
	AchievementHandler *handlers.AchievementHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/request-password-reset", cfg.AuthHandler.RequestPasswordReset)
	router.POST("/reset-password", cfg.AuthHandler.ResetPassword)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.GET("/user", cfg.AuthHandler.GetMe)
		api.GET("/user/score", cfg.ProgressHandler.UserScore)

		api.GET("/modules", cfg.ModuleHandler.List)
		api.GET("/modules/:id", cfg.ModuleHandler.Get)
		api.GET("/modules/:id/tasks", cfg.TaskHandler.ListByModule)
		api.GET("/modules/:id/progress", cfg.ProgressHandler.ModuleProgress)
		api.GET("/progress", cfg.ProgressHandler.UserProgress)

		api.GET("/tasks/next", cfg.ProgressHandler.NextTask)
		api.GET("/tasks/:id", cfg.TaskHandler.Get)
		api.POST("/tasks/:id/submit", cfg.SubmissionHandler.Submit)
		api.POST("/tasks/:id/submit/validated", cfg.SubmissionHandler.SubmitValidated)
		api.GET("/tasks/:id/submissions", cfg.SubmissionHandler.History)
		api.POST("/tasks/:id/like", cfg.TaskHandler.SetLiked)
		api.POST("/tasks/:id/feedback", cfg.TaskHandler.SubmitFeedback)
		api.POST("/tasks/:id/diff", cfg.TaskHandler.DiffPreview)

		api.GET("/achievements", cfg.AchievementHandler.ListCompleted)
		api.GET("/achievements/unviewed", cfg.AchievementHandler.ListUnviewed)
		api.POST("/achievements/:id/viewed", cfg.AchievementHandler.MarkViewed)
		api.POST("/activity", cfg.AchievementHandler.RecordActivity)
	}

	author := api.Group("/")
	author.Use(cfg.AuthMiddleware.RequireAuthor())
	{
		author.GET("/tasks", cfg.TaskHandler.List)
		author.POST("/tasks", cfg.TaskHandler.Create)
		author.PUT("/tasks/:id", cfg.TaskHandler.Update)
		author.PATCH("/tasks/:id/visibility", cfg.TaskHandler.SetVisibility)
		author.POST("/modules", cfg.ModuleHandler.Create)
		author.PUT("/modules/:id", cfg.ModuleHandler.Update)
	}

	return router
}
