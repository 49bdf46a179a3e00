package handlers

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/stretchr/testify/require"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/services"
  "github.com/haven-labs/haven-backend/internal/types"
)

type fakeChatService struct {
  reply    string
  err      error
  history  []*types.Message
  lastSent string
}

func (f *fakeChatService) SendMessage(ctx context.Context, message string) (string, error) {
  _ = ctx
  f.lastSent = message
  if f.err != nil {
    return "", f.err
  }
  return f.reply, nil
}

func (f *fakeChatService) GetHistory(ctx context.Context) ([]*types.Message, error) {
  _ = ctx
  if f.err != nil {
    return nil, f.err
  }
  return f.history, nil
}

func newChatRouter(t *testing.T, svc services.ChatService) *gin.Engine {
  t.Helper()
  gin.SetMode(gin.TestMode)
  log, err := logger.New("development")
  require.NoError(t, err)
  handler := NewChatHandler(log, svc)
  router := gin.New()
  router.POST("/api/chat", handler.SendMessage)
  router.GET("/api/chat/history", handler.GetHistory)
  return router
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
  t.Helper()
  req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
  req.Header.Set("Content-Type", "application/json")
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)
  return w
}

func TestChatHandler_SendMessage_OK(t *testing.T) {
  svc := &fakeChatService{reply: "Happy to help."}
  router := newChatRouter(t, svc)

  w := postChat(t, router, `{"message":"Hello"}`)
  require.Equal(t, http.StatusOK, w.Code)
  require.JSONEq(t, `{"response":"Happy to help."}`, w.Body.String())
  require.Equal(t, "Hello", svc.lastSent)
}

func TestChatHandler_SendMessage_IgnoresClientAISettings(t *testing.T) {
  svc := &fakeChatService{reply: "ok"}
  router := newChatRouter(t, svc)

  w := postChat(t, router, `{"message":"Hello","aiSettings":{"userNickname":"Sam","role":"Coach"}}`)
  require.Equal(t, http.StatusOK, w.Code)
  require.Equal(t, "Hello", svc.lastSent)
}

func TestChatHandler_SendMessage_Unauthorized(t *testing.T) {
  svc := &fakeChatService{err: services.ErrUnauthorized}
  router := newChatRouter(t, svc)

  w := postChat(t, router, `{"message":"Hello"}`)
  require.Equal(t, http.StatusUnauthorized, w.Code)
  require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestChatHandler_SendMessage_GenerationFailure(t *testing.T) {
  svc := &fakeChatService{err: services.ErrGenerationFailed}
  router := newChatRouter(t, svc)

  w := postChat(t, router, `{"message":"Hello"}`)
  require.Equal(t, http.StatusInternalServerError, w.Code)
  // Generic body; no provider detail leaks to the client.
  require.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestChatHandler_SendMessage_RejectsBlankMessage(t *testing.T) {
  svc := &fakeChatService{reply: "ok"}
  router := newChatRouter(t, svc)

  w := postChat(t, router, `{"message":"   "}`)
  require.Equal(t, http.StatusBadRequest, w.Code)
  require.Empty(t, svc.lastSent, "service must not be called for blank input")
}

func TestChatHandler_SendMessage_RejectsMalformedBody(t *testing.T) {
  svc := &fakeChatService{reply: "ok"}
  router := newChatRouter(t, svc)

  w := postChat(t, router, `{"message":`)
  require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHandler_GetHistory_OK(t *testing.T) {
  svc := &fakeChatService{history: []*types.Message{
    {ID: uuid.New(), Role: types.RoleUser, Content: "Hi", CreatedAt: time.Now()},
    {ID: uuid.New(), Role: types.RoleAssistant, Content: "Hello!", CreatedAt: time.Now()},
  }}
  router := newChatRouter(t, svc)

  req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusOK, w.Code)
  var resp struct {
    Messages []types.Message `json:"messages"`
  }
  require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
  require.Len(t, resp.Messages, 2)
  require.Equal(t, "Hi", resp.Messages[0].Content)
}

func TestChatHandler_GetHistory_EmptyIsAnArray(t *testing.T) {
  svc := &fakeChatService{}
  router := newChatRouter(t, svc)

  req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusOK, w.Code)
  require.JSONEq(t, `{"messages":[]}`, w.Body.String())
}

func TestChatHandler_GetHistory_InternalError(t *testing.T) {
  svc := &fakeChatService{err: errors.New("db down")}
  router := newChatRouter(t, svc)

  req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
  w := httptest.NewRecorder()
  router.ServeHTTP(w, req)

  require.Equal(t, http.StatusInternalServerError, w.Code)
  require.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
