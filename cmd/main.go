package main

import (
  "fmt"
  "os"
  "time"

  "github.com/taskchat-org/taskchat-backend/internal/db"
  "github.com/taskchat-org/taskchat-backend/internal/handlers"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/middleware"
  "github.com/taskchat-org/taskchat-backend/internal/repos"
  "github.com/taskchat-org/taskchat-backend/internal/server"
  "github.com/taskchat-org/taskchat-backend/internal/services"
  "github.com/taskchat-org/taskchat-backend/internal/tools"
  "github.com/taskchat-org/taskchat-backend/internal/utils"
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
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  openAIBaseURL := utils.GetEnv("OPENAI_BASE_URL", "", log)
  openAIKey := utils.GetEnv("OPENAI_API_KEY", "", log)
  openAIModel := utils.GetEnv("OPENAI_MODEL", "gpt-4o-mini", log)
  maxRounds := utils.GetEnvAsInt("AGENT_MAX_ROUNDS", 8, log)
  lockTTL := utils.GetEnvAsInt("CHAT_LOCK_TTL", 60, log)

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

  // Repositories Setup
  userRepo := repos.NewUserRepo(thePG, log)
  taskRepo := repos.NewTaskRepo(thePG, log)
  convoRepo := repos.NewConversationRepo(thePG, log)
  msgRepo := repos.NewMessageRepo(thePG, log)

  // Conversation Lock Setup: redis when configured, in-process otherwise
  var locker services.ConvoLocker
  if redisAddress != "" {
    locker, err = services.NewRedisConvoLocker(log, redisAddress, redisPassword, time.Duration(lockTTL)*time.Second)
    if err != nil {
      log.Warn("Failed to init redis conversation locker, falling back to in-process locking", "error", err)
      locker = services.NewLocalConvoLocker(log)
    }
  } else {
    locker = services.NewLocalConvoLocker(log)
  }

  // Tool Registry Setup
  registry := tools.NewTaskRegistry(taskRepo, log)

  // Services Setup
  llmService := services.NewOpenAIService(log, openAIBaseURL, openAIKey, openAIModel)
  agentService := services.NewAgentService(log, llmService, registry, maxRounds)
  chatService := services.NewChatService(thePG, log, convoRepo, msgRepo, agentService, locker)
  authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)

  // Handler Setup
  authHandler := handlers.NewAuthHandler(authService)
  chatHandler := handlers.NewChatHandler(chatService)
  conversationHandler := handlers.NewConversationHandler(chatService)
  taskHandler := handlers.NewTaskHandler(taskRepo)

  // MiddleWare Setup
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router Setup
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:         authHandler,
    AuthMiddleware:      authMiddleware,
    ChatHandler:         chatHandler,
    ConversationHandler: conversationHandler,
    TaskHandler:         taskHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
    os.Exit(1)
  }
}
