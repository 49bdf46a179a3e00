package handlers

import (
  "encoding/json"
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/haven-labs/haven-backend/internal/authevents"
  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/requestdata"
)

type EventsHandler struct {
  log     *logger.Logger
  hub     *authevents.Hub
}

func NewEventsHandler(log *logger.Logger, hub *authevents.Hub) *EventsHandler {
  return &EventsHandler{
    log: log.With("Handler", "EventsHandler"),
    hub: hub,
  }
}

// Stream holds an SSE connection open and pushes the caller's auth-state
// events until the client disconnects.
func (eh *EventsHandler) Stream(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
    return
  }
  flusher, ok := c.Writer.(http.Flusher)
  if !ok {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
    return
  }

  c.Writer.Header().Set("Content-Type", "text/event-stream")
  c.Writer.Header().Set("Cache-Control", "no-cache")
  c.Writer.Header().Set("Connection", "keep-alive")
  c.Writer.WriteHeader(http.StatusOK)
  flusher.Flush()

  sub := eh.hub.Subscribe(rd.UserID)
  defer eh.hub.Unsubscribe(sub)
  eh.log.Debug("SSE stream opened", "userID", rd.UserID)

  ctx := c.Request.Context()
  for {
    select {
    case <-ctx.Done():
      eh.log.Debug("SSE stream closed by client", "userID", rd.UserID)
      return
    case ev, open := <-sub.Ch:
      if !open {
        return
      }
      payload, err := json.Marshal(ev)
      if err != nil {
        eh.log.Warn("Failed to encode auth event", "error", err)
        continue
      }
      if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
        eh.log.Debug("SSE write failed, dropping stream", "error", err)
        return
      }
      flusher.Flush()
    }
  }
}
