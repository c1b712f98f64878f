package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/taskchat-org/taskchat-backend/internal/handlers"
  "github.com/taskchat-org/taskchat-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler         *handlers.AuthHandler
  AuthMiddleware      *middleware.AuthMiddleware
  ChatHandler         *handlers.ChatHandler
  ConversationHandler *handlers.ConversationHandler
  TaskHandler         *handlers.TaskHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://127.0.0.1:3000",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

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
    api.POST("/login", cfg.AuthHandler.Login)
    api.POST("/refresh", cfg.AuthHandler.Refresh)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())

  //Chat
  protected.POST("/chat", cfg.ChatHandler.Chat)
  protected.GET("/conversations", cfg.ConversationHandler.ListConversations)
  protected.GET("/conversations/:id", cfg.ConversationHandler.GetConversation)

  //Tasks
  protected.GET("/tasks", cfg.TaskHandler.ListTasks)
  protected.POST("/tasks", cfg.TaskHandler.CreateTask)
  protected.PATCH("/tasks/:id", cfg.TaskHandler.UpdateTask)
  protected.DELETE("/tasks/:id", cfg.TaskHandler.DeleteTask)

  return router
}
