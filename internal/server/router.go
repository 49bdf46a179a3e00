package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/haven-labs/haven-backend/internal/handlers"
  "github.com/haven-labs/haven-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler         *handlers.AuthHandler
  ChatHandler         *handlers.ChatHandler
  SettingsHandler     *handlers.SettingsHandler
  EventsHandler       *handlers.EventsHandler
  AuthMiddleware      *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "https://havenapp.ai",
      "https://www.havenapp.ai",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))
  router.Use(middleware.AttachErrorData())

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/healthz", handlers.Healthz)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.GET("/verify", cfg.AuthHandler.Verify)
    api.POST("/login", cfg.AuthHandler.Login)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)

  //Chat
  protected.POST("/chat", cfg.ChatHandler.SendMessage)
  protected.GET("/chat/history", cfg.ChatHandler.GetHistory)

  //Settings
  protected.GET("/settings", cfg.SettingsHandler.GetSettings)
  protected.PUT("/settings", cfg.SettingsHandler.PutSettings)

  //Auth State Events
  protected.GET("/events", cfg.EventsHandler.Stream)

  return router
}
