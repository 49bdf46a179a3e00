package chatclient

import (
  "bufio"
  "context"
  "encoding/json"
  "fmt"
  "net/http"
  "strings"
  "time"

  "github.com/google/uuid"
)

type authEvent struct {
  Type   string    `json:"type"`
  UserID uuid.UUID `json:"userId"`
  At     time.Time `json:"at"`
}

// EventStreamer is implemented by API clients that can follow the backend's
// auth-state stream. The CLI may skip it; the web surface wires it into
// Client.HandleAuthEvent.
type EventStreamer interface {
  StreamEvents(ctx context.Context, onEvent func(eventType string)) error
}

// StreamEvents holds the SSE connection open and invokes onEvent for every
// auth-state change pushed for this session. Returns when the context is
// cancelled or the connection drops; reconnecting is the caller's choice.
func (a *httpAPI) StreamEvents(ctx context.Context, onEvent func(eventType string)) error {
  a.mu.RLock()
  token := a.accessToken
  a.mu.RUnlock()
  if token == "" {
    return ErrNoSession
  }

  // EventSource-style endpoints cannot take headers from every client, so
  // the token rides in the query, same as the server's SSE middleware
  // expects.
  url := fmt.Sprintf("%s/api/events?token=%s", a.baseURL, token)
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
  if err != nil {
    return err
  }
  req.Header.Set("Accept", "text/event-stream")

  // No overall timeout; the stream stays open until cancelled.
  client := &http.Client{}
  resp, err := client.Do(req)
  if err != nil {
    return err
  }
  defer resp.Body.Close()
  if resp.StatusCode != http.StatusOK {
    return fmt.Errorf("event stream rejected: HTTP %d", resp.StatusCode)
  }

  scanner := bufio.NewScanner(resp.Body)
  for scanner.Scan() {
    line := scanner.Text()
    if !strings.HasPrefix(line, "data: ") {
      continue
    }
    var ev authEvent
    if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
      a.log.Warn("failed to decode auth event", "error", err)
      continue
    }
    onEvent(ev.Type)
  }
  return scanner.Err()
}
