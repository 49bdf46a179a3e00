package chatclient

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "strings"
  "sync"
  "time"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

// ErrSettingsMissing signals a first run: the account exists but onboarding
// never completed.
var ErrSettingsMissing = fmt.Errorf("settings missing")

// ErrNoSession means an operation that needs a signed-in session ran
// without one.
var ErrNoSession = fmt.Errorf("no active session")

// API is the backend surface the chat client needs. Session state lives in
// the implementation; callers never pass tokens around.
type API interface {
  Login(ctx context.Context, email, password string) error
  Logout(ctx context.Context) error
  SendMessage(ctx context.Context, message string) (string, error)
  History(ctx context.Context) ([]*types.Message, error)
  GetSettings(ctx context.Context) (*types.AISettings, error)
  PutSettings(ctx context.Context, settings types.AISettings) error
  HasSession() bool
}

type httpAPI struct {
  log          *logger.Logger
  client       *http.Client
  baseURL      string
  mu           sync.RWMutex
  accessToken  string
  refreshToken string
}

func NewHTTPAPI(log *logger.Logger, baseURL string) API {
  return &httpAPI{
    log:     log.With("component", "ChatAPI"),
    client:  &http.Client{Timeout: 60 * time.Second},
    baseURL: strings.TrimRight(baseURL, "/"),
  }
}

func (a *httpAPI) HasSession() bool {
  a.mu.RLock()
  defer a.mu.RUnlock()
  return a.accessToken != ""
}

func (a *httpAPI) Login(ctx context.Context, email, password string) error {
  var resp struct {
    AccessToken  string `json:"access_token"`
    RefreshToken string `json:"refresh_token"`
  }
  body := map[string]string{"email": email, "password": password}
  if err := a.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
    return err
  }
  a.mu.Lock()
  a.accessToken = resp.AccessToken
  a.refreshToken = resp.RefreshToken
  a.mu.Unlock()
  return nil
}

func (a *httpAPI) Logout(ctx context.Context) error {
  err := a.do(ctx, http.MethodPost, "/api/logout", map[string]string{}, nil)
  a.mu.Lock()
  a.accessToken = ""
  a.refreshToken = ""
  a.mu.Unlock()
  return err
}

func (a *httpAPI) SendMessage(ctx context.Context, message string) (string, error) {
  var resp struct {
    Response string `json:"response"`
  }
  body := map[string]string{"message": message}
  if err := a.do(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
    return "", err
  }
  return resp.Response, nil
}

func (a *httpAPI) History(ctx context.Context) ([]*types.Message, error) {
  var resp struct {
    Messages []*types.Message `json:"messages"`
  }
  if err := a.do(ctx, http.MethodGet, "/api/chat/history", nil, &resp); err != nil {
    return nil, err
  }
  return resp.Messages, nil
}

func (a *httpAPI) GetSettings(ctx context.Context) (*types.AISettings, error) {
  var settings types.AISettings
  if err := a.do(ctx, http.MethodGet, "/api/settings", nil, &settings); err != nil {
    return nil, err
  }
  return &settings, nil
}

func (a *httpAPI) PutSettings(ctx context.Context, settings types.AISettings) error {
  return a.do(ctx, http.MethodPut, "/api/settings", settings, nil)
}

func (a *httpAPI) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
  var reader io.Reader
  if body != nil {
    b, err := json.Marshal(body)
    if err != nil {
      return err
    }
    reader = bytes.NewReader(b)
  }
  req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
  if err != nil {
    return err
  }
  if body != nil {
    req.Header.Set("Content-Type", "application/json")
  }
  a.mu.RLock()
  token := a.accessToken
  a.mu.RUnlock()
  if token != "" {
    req.Header.Set("Authorization", "Bearer "+token)
  }

  resp, err := a.client.Do(req)
  if err != nil {
    a.log.Warn("request failed", "method", method, "path", path, "error", err)
    return err
  }
  defer resp.Body.Close()

  if resp.StatusCode == http.StatusNotFound && path == "/api/settings" {
    return ErrSettingsMissing
  }
  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
    var errBody struct {
      Error string `json:"error"`
    }
    if jErr := json.Unmarshal(bodyBytes, &errBody); jErr == nil && errBody.Error != "" {
      return fmt.Errorf("%s", errBody.Error)
    }
    return fmt.Errorf("HTTP %d", resp.StatusCode)
  }
  if out == nil {
    return nil
  }
  return json.NewDecoder(resp.Body).Decode(out)
}
