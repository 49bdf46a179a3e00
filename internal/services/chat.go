package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/errordata"
  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/repos"
  "github.com/haven-labs/haven-backend/internal/requestdata"
  "github.com/haven-labs/haven-backend/internal/types"
)

var (
  // ErrUnauthorized means no caller identity could be derived from the
  // session credential. Terminal for the request; zero store writes.
  ErrUnauthorized = errors.New("Unauthorized")

  // ErrGenerationFailed covers every provider failure, including an empty
  // reply. The handler surfaces it as a generic internal error with no
  // provider detail leaked.
  ErrGenerationFailed = errors.New("failed to generate a reply")
)

// chatSystemPrompt is prepended to every prompt sent upstream.
const chatSystemPrompt = "You are an AI coach and companion. You have access to the conversation history and should maintain context and continuity in your responses. Be helpful, supportive, and engaging while maintaining a professional tone."

type ChatService interface {
  // SendMessage runs one full exchange for the calling user: load context,
  // generate, persist both sides, return the reply.
  SendMessage(ctx context.Context, message string) (string, error)

  // GetHistory returns the caller's full conversation, oldest first.
  GetHistory(ctx context.Context) ([]*types.Message, error)
}

type chatService struct {
  db                *gorm.DB
  log               *logger.Logger
  messageRepo       repos.MessageRepo
  completionService CompletionService
  historyLimit      int
  strictPersistence bool
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  messageRepo repos.MessageRepo,
  completionService CompletionService,
  historyLimit int,
  strictPersistence bool,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  if historyLimit <= 0 {
    historyLimit = 10
  }
  return &chatService{
    db:                db,
    log:               serviceLog,
    messageRepo:       messageRepo,
    completionService: completionService,
    historyLimit:      historyLimit,
    strictPersistence: strictPersistence,
  }
}

// SendMessage's step ordering is the contract: identity, history, prompt,
// generation, persistence, reply. History load and (by default) persistence
// are best effort; generation is not.
func (cs *chatService) SendMessage(ctx context.Context, message string) (string, error) {
  //1) Resolve caller identity from the session. Never from the request body.
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No caller identity in context, rejecting chat request.")
    return "", ErrUnauthorized
  }
  userID := rd.UserID

  //2) Load recent history for context. Chat availability beats context
  //   completeness: a failed read degrades to an empty context.
  history, hErr := cs.messageRepo.GetRecentByUserID(ctx, nil, userID, cs.historyLimit)
  if hErr != nil {
    cs.log.Warn("Failed to load conversation history, proceeding with empty context", "error", hErr, "userID", userID)
    if ed := errordata.GetErrorData(ctx); ed != nil {
      ed.AddNote(fmt.Sprintf("history load degraded: %v", hErr))
    }
    history = nil
  }

  //3) Assemble the prompt: system instruction, history in chronological
  //   order, the new user message last.
  prompt := make([]PromptMessage, 0, len(history)+2)
  prompt = append(prompt, PromptMessage{Role: types.RoleSystem, Content: chatSystemPrompt})
  for _, msg := range history {
    prompt = append(prompt, PromptMessage{Role: msg.Role, Content: msg.Content})
  }
  prompt = append(prompt, PromptMessage{Role: types.RoleUser, Content: message})

  //4) Invoke the completion provider. No retries here; retries are the
  //   client's business.
  reply, gErr := cs.completionService.Complete(ctx, prompt)
  if gErr != nil {
    cs.log.Warn("Completion provider failed", "error", gErr, "userID", userID)
    return "", ErrGenerationFailed
  }

  //5) An empty reply counts as a failure.
  if strings.TrimSpace(reply) == "" {
    cs.log.Warn("Completion provider returned an empty reply", "userID", userID)
    return "", ErrGenerationFailed
  }

  //6) Persist the exchange: user message strictly before assistant reply,
  //   so a failure between the two leaves a lone user message and never an
  //   orphaned assistant row. No rollback of the first insert.
  if pErr := cs.persistExchange(ctx, userID, message, reply); pErr != nil {
    if cs.strictPersistence {
      return "", pErr
    }
    cs.log.Warn("Best-effort persistence of exchange failed; reply still returned", "error", pErr, "userID", userID)
    if ed := errordata.GetErrorData(ctx); ed != nil {
      ed.AddNote(fmt.Sprintf("persistence degraded: %v", pErr))
    }
  }

  //7) Return the reply.
  return reply, nil
}

func (cs *chatService) persistExchange(ctx context.Context, userID uuid.UUID, message, reply string) error {
  now := time.Now().UTC()
  userMsg := &types.Message{
    ID:        uuid.New(),
    UserID:    userID,
    Role:      types.RoleUser,
    Content:   message,
    CreatedAt: now,
  }
  if _, err := cs.messageRepo.CreateMessages(ctx, nil, []*types.Message{userMsg}); err != nil {
    return fmt.Errorf("failed to persist user message: %w", err)
  }
  assistantMsg := &types.Message{
    ID:        uuid.New(),
    UserID:    userID,
    Role:      types.RoleAssistant,
    Content:   reply,
    CreatedAt: now.Add(time.Millisecond),
  }
  if _, err := cs.messageRepo.CreateMessages(ctx, nil, []*types.Message{assistantMsg}); err != nil {
    return fmt.Errorf("failed to persist assistant message: %w", err)
  }
  return nil
}

func (cs *chatService) GetHistory(ctx context.Context) ([]*types.Message, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    cs.log.Warn("No caller identity in context, rejecting history request.")
    return nil, ErrUnauthorized
  }
  msgs, err := cs.messageRepo.GetAllByUserID(ctx, nil, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to load conversation history", "error", err, "userID", rd.UserID)
    return nil, fmt.Errorf("Failed to load conversation history: %w", err)
  }
  return msgs, nil
}
