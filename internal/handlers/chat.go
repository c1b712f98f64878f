package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/taskchat-org/taskchat-backend/internal/services"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

// Chat handles one turn: an optional conversation id plus the user's
// message text, answered with the assistant reply and the turn's
// tool-call log.
func (ch *ChatHandler) Chat(c *gin.Context) {
  var req types.ChatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  resp, err := ch.chatService.SendMessage(c.Request.Context(), req.ConversationID, req.Message)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, resp)
}
