package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "os"
  "strings"
  "time"

  "github.com/haven-labs/haven-backend/internal/logger"
)

// PromptMessage is one role-tagged entry of the prompt sent upstream.
type PromptMessage struct {
  Role      string      `json:"role"`
  Content   string      `json:"content"`
}

// CompletionService turns an ordered prompt into a single generated reply.
// No retries happen at this layer.
type CompletionService interface {
  Complete(ctx context.Context, messages []PromptMessage) (string, error)
}

type openAICompletionService struct {
  log           *logger.Logger
  client        *http.Client
  baseURL       string
  apiKey        string
  model         string
  temperature   float64
  maxTokens     int
}

type chatCompletionRequest struct {
  Model         string            `json:"model"`
  Messages      []PromptMessage   `json:"messages"`
  Temperature   float64           `json:"temperature"`
  MaxTokens     int               `json:"max_tokens"`
}

type chatCompletionResponse struct {
  Choices []struct {
    Message PromptMessage `json:"message"`
  } `json:"choices"`
  Error *struct {
    Message string `json:"message"`
  } `json:"error,omitempty"`
}

func NewOpenAICompletionService(log *logger.Logger) (CompletionService, error) {
  serviceLog := log.With("service", "CompletionService")
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY environment variable")
  }
  baseURL := os.Getenv("OPENAI_API_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com/v1"
  }
  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-3.5-turbo"
  }
  httpClient := &http.Client{
    Timeout: 30 * time.Second,
  }
  return &openAICompletionService{
    log:         serviceLog,
    client:      httpClient,
    baseURL:     baseURL,
    apiKey:      apiKey,
    model:       model,
    temperature: 0.7,
    maxTokens:   500,
  }, nil
}

func (cs *openAICompletionService) Complete(ctx context.Context, messages []PromptMessage) (string, error) {
  reqBody := chatCompletionRequest{
    Model:       cs.model,
    Messages:    messages,
    Temperature: cs.temperature,
    MaxTokens:   cs.maxTokens,
  }
  b, err := json.Marshal(reqBody)
  if err != nil {
    return "", err
  }

  reqURL := fmt.Sprintf("%s/chat/completions", strings.TrimRight(cs.baseURL, "/"))
  req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(b))
  if err != nil {
    cs.log.Warn("failed to build completion request", "error", err)
    return "", err
  }
  req.Header.Set("Content-Type", "application/json")
  req.Header.Set("Authorization", "Bearer "+cs.apiKey)

  resp, err := cs.client.Do(req)
  if err != nil {
    cs.log.Warn("failed to call completion provider", "error", err)
    return "", err
  }
  defer resp.Body.Close()

  if resp.StatusCode < 200 || resp.StatusCode > 299 {
    bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
    cs.log.Warn("completion provider responded with non-2xx", "statusCode", resp.StatusCode, "body", string(bodyBytes))
    return "", fmt.Errorf("completion provider HTTP %d: %s", resp.StatusCode, string(bodyBytes))
  }

  var decoded chatCompletionResponse
  if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
    cs.log.Warn("failed to decode completion provider response", "error", err)
    return "", err
  }
  if decoded.Error != nil && decoded.Error.Message != "" {
    return "", fmt.Errorf("completion provider error: %s", decoded.Error.Message)
  }
  if len(decoded.Choices) == 0 {
    return "", fmt.Errorf("completion provider returned no choices")
  }
  return decoded.Choices[0].Message.Content, nil
}
