package app

import (
	"pulse_backend/docs"
	"pulse_backend/internal/config"
	"pulse_backend/internal/middleware"
	"pulse_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerTrainingRoutes(authGroup, c)
		a.registerChatRoutes(authGroup, c)
		a.registerPlayerRoutes(authGroup, c)
		a.registerDictationRoutes(authGroup, c)

		authGroup.POST("/tts", c.tts.Synthesize)
		authGroup.GET("/profile", c.auth.Profile)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	router.GET("/health", c.health.HealthCheck)

	auth := router.Group("/api/auth")
	{
		auth.GET("/oauth/:provider", c.auth.OAuthSignIn)
		auth.POST("/email", c.auth.EmailSignIn)
		auth.GET("/callback", c.auth.Callback)
		auth.POST("/signout", c.auth.SignOut)
	}

	// 语言列表是静态数据，登录页也要用
	router.GET("/api/training/languages", c.training.Languages)
}

func (a *App) registerTrainingRoutes(group *gin.RouterGroup, c *controllers) {
	training := group.Group("/training")
	{
		training.GET("/videos", c.training.ListVideos)
		training.GET("/videos/:id", c.training.GetVideo)
		training.POST("/videos/:id/viewed", c.training.MarkViewed)
		training.POST("/videos/:id/completed", c.training.MarkCompleted)
	}
}

func (a *App) registerChatRoutes(group *gin.RouterGroup, c *controllers) {
	group.POST("/chat", c.chat.StreamVideoChat)
	group.POST("/chat/qa", c.chat.StreamProductQA)

	sessions := group.Group("/chat/sessions")
	{
		sessions.POST("", c.chat.CreateSession)
		sessions.GET("/:id", c.chat.SessionState)
		sessions.DELETE("/:id", c.chat.CloseSession)
		sessions.POST("/:id/messages", c.chat.Submit)
		sessions.POST("/:id/reactions", c.chat.React)
		sessions.POST("/:id/messages/:messageId/copied", c.chat.MarkCopied)
		sessions.POST("/:id/messages/:messageId/speak", c.chat.Speak)
		sessions.POST("/:id/messages/:messageId/speech/end", c.chat.EndSpeech)
	}
}

func (a *App) registerPlayerRoutes(group *gin.RouterGroup, c *controllers) {
	sessions := group.Group("/player/sessions")
	{
		sessions.POST("", c.player.CreateSession)
		sessions.GET("/:id", c.player.State)
		sessions.DELETE("/:id", c.player.CloseSession)
		sessions.POST("/:id/play", c.player.Play)
		sessions.POST("/:id/pause", c.player.Pause)
		sessions.POST("/:id/seek", c.player.Seek)
		sessions.POST("/:id/tick", c.player.Tick)
		sessions.POST("/:id/answer", c.player.Answer)
		sessions.POST("/:id/fullscreen", c.player.Fullscreen)
	}
}

func (a *App) registerDictationRoutes(group *gin.RouterGroup, c *controllers) {
	dictation := group.Group("/dictation")
	{
		dictation.GET("/support", c.dictation.Support)
		dictation.POST("/sessions", c.dictation.CreateSession)
		dictation.GET("/sessions/:id/text", c.dictation.Text)
		dictation.DELETE("/sessions/:id", c.dictation.CloseSession)
		dictation.POST("/sessions/:id/toggle", c.dictation.Toggle)
		dictation.POST("/sessions/:id/audio", c.dictation.SendAudio)
		dictation.POST("/sessions/:id/reset", c.dictation.Reset)
	}
}
