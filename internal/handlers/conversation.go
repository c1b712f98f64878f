package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/taskchat-org/taskchat-backend/internal/services"
)

type ConversationHandler struct {
  chatService services.ChatService
}

func NewConversationHandler(chatService services.ChatService) *ConversationHandler {
  return &ConversationHandler{chatService: chatService}
}

func (ch *ConversationHandler) ListConversations(c *gin.Context) {
  convos, err := ch.chatService.GetUserConversations(c.Request.Context())
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"conversations": convos})
}

func (ch *ConversationHandler) GetConversation(c *gin.Context) {
  convoID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
    return
  }
  convo, msgs, err := ch.chatService.GetConversationWithMessages(c.Request.Context(), convoID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "conversation": convo,
    "messages":     msgs,
  })
}
