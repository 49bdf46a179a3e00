package handlers

import (
  "errors"
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"

  "github.com/haven-labs/haven-backend/internal/errordata"
  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/services"
  "github.com/haven-labs/haven-backend/internal/types"
)

type ChatHandler struct {
  log           *logger.Logger
  chatService   services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
  handlerLog := log.With("Handler", "ChatHandler")
  return &ChatHandler{log: handlerLog, chatService: chatService}
}

// SendMessage is the main chat endpoint. The body may carry an aiSettings
// object; it is accepted and ignored. The prompt is built server-side from
// stored history only.
func (ch *ChatHandler) SendMessage(c *gin.Context) {
  var req struct {
    Message         string              `json:"message"`
    AISettings      *types.AISettings   `json:"aiSettings,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if strings.TrimSpace(req.Message) == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
    return
  }

  ctx := c.Request.Context()
  reply, err := ch.chatService.SendMessage(ctx, req.Message)

  if ed := errordata.GetErrorData(ctx); ed != nil && ed.HasNotes() {
    for _, note := range ed.Notes {
      ch.log.Warn("Chat request degraded", "note", note)
    }
  }

  if err != nil {
    if errors.Is(err, services.ErrUnauthorized) {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (ch *ChatHandler) GetHistory(c *gin.Context) {
  msgs, err := ch.chatService.GetHistory(c.Request.Context())
  if err != nil {
    if errors.Is(err, services.ErrUnauthorized) {
      c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
      return
    }
    c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
    return
  }
  if msgs == nil {
    msgs = []*types.Message{}
  }
  c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
