package main

import (
  "fmt"
  "os"
  "time"

  "github.com/haven-labs/haven-backend/internal/authevents"
  "github.com/haven-labs/haven-backend/internal/db"
  "github.com/haven-labs/haven-backend/internal/handlers"
  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/middleware"
  "github.com/haven-labs/haven-backend/internal/repos"
  "github.com/haven-labs/haven-backend/internal/server"
  "github.com/haven-labs/haven-backend/internal/services"
  "github.com/haven-labs/haven-backend/internal/utils"
)

func main() {
  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  appBaseURL := utils.GetEnv("APP_BASE_URL", "http://localhost:8080", log)
  chatHistoryLimit := utils.GetEnvAsInt("CHAT_HISTORY_LIMIT", 10, log)
  strictPersistence := utils.GetEnvAsBool("STRICT_PERSISTENCE", false, log)
  log.Debug("Environment variables loaded for Main :)",
    "accessTokenTTL", accessTokenTTL,
    "refreshTokenTTL", refreshTokenTTL,
    "redisAddress", redisAddress,
    "appBaseURL", appBaseURL,
    "chatHistoryLimit", chatHistoryLimit,
    "strictPersistence", strictPersistence,
  )

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  oneTimeCodeRepo := repos.NewOneTimeCodeRepo(thePG, log)
  messageRepo := repos.NewMessageRepo(thePG, log)
  userSettingsRepo := repos.NewUserSettingsRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Auth Event Hub + Redis PubSub
  log.Info("Setting Up Auth Event Hub From Main Now :)")
  eventHub := authevents.NewHub(log)
  redisChanName := "haven_auth_events"
  redisPubSub, err := authevents.NewRedisPubSub(log, redisAddress, redisPassword, redisChanName)
  if err != nil {
    log.Warn("Failed to init redis pubsub; auth events stay process-local", "error", err)
  } else {
    if err := redisPubSub.StartSubscriber(eventHub); err != nil {
      log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
    } else {
      eventHub.SetRedisPubSub(redisPubSub)
      log.Info("Redis pubsub is active!")
    }
  }

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService; verification emails disabled", "error", err)
  }
  completionService, err := services.NewOpenAICompletionService(log)
  if err != nil {
    log.Error("Fatal error: Cannot init CompletionService", "error", err)
    os.Exit(1)
  }
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, oneTimeCodeRepo, emailService, eventHub, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second, appBaseURL)
  chatService := services.NewChatService(thePG, log, messageRepo, completionService, chatHistoryLimit, strictPersistence)
  settingsService := services.NewSettingsService(thePG, log, userSettingsRepo)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService)
  chatHandler := handlers.NewChatHandler(log, chatService)
  settingsHandler := handlers.NewSettingsHandler(settingsService)
  eventsHandler := handlers.NewEventsHandler(log, eventHub)
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  log.Info("Setting Up Middleware from Main now...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  log.Info("Middleware Set Up From Main Successful :)")

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:     authHandler,
    ChatHandler:     chatHandler,
    SettingsHandler: settingsHandler,
    EventsHandler:   eventsHandler,
    AuthMiddleware:  authMiddleware,
  })
  log.Info("Router Set Up From Main Successful :)")

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }

  // On Shutdown
  if redisPubSub != nil {
    redisPubSub.Stop()
  }
}
