package services

import (
  "context"
  "errors"
  "fmt"
  "testing"
  "time"

  "github.com/google/uuid"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/errordata"
  "github.com/haven-labs/haven-backend/internal/repos"
  "github.com/haven-labs/haven-backend/internal/requestdata"
  "github.com/haven-labs/haven-backend/internal/types"
)

type recordingCompletion struct {
  last  []PromptMessage
  reply string
  err   error
  calls int
}

func (p *recordingCompletion) Complete(ctx context.Context, messages []PromptMessage) (string, error) {
  _ = ctx
  p.calls++
  p.last = append([]PromptMessage(nil), messages...)
  if p.err != nil {
    return "", p.err
  }
  return p.reply, nil
}

// brokenHistoryRepo fails every read but writes normally.
type brokenHistoryRepo struct {
  repos.MessageRepo
}

func (r *brokenHistoryRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Message, error) {
  return nil, errors.New("connection refused")
}

// brokenWriteRepo reads normally but fails every insert.
type brokenWriteRepo struct {
  repos.MessageRepo
}

func (r *brokenWriteRepo) CreateMessages(ctx context.Context, tx *gorm.DB, msgs []*types.Message) ([]*types.Message, error) {
  return nil, errors.New("disk full")
}

func countMessages(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
  t.Helper()
  var count int64
  require.NoError(t, db.Model(&types.Message{}).Where("user_id = ?", userID).Count(&count).Error)
  return count
}

func TestChatService_SendMessage_PersistsUserThenAssistant(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  prov := &recordingCompletion{reply: "Glad to help."}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  reply, err := svc.SendMessage(authedContext(userID), "Hello")
  require.NoError(t, err)
  require.Equal(t, "Glad to help.", reply)

  msgs, err := repo.GetAllByUserID(context.Background(), nil, userID)
  require.NoError(t, err)
  require.Len(t, msgs, 2)
  require.Equal(t, types.RoleUser, msgs[0].Role)
  require.Equal(t, "Hello", msgs[0].Content)
  require.Equal(t, types.RoleAssistant, msgs[1].Role)
  require.Equal(t, "Glad to help.", msgs[1].Content)
}

func TestChatService_SendMessage_PromptShape(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  prov := &recordingCompletion{reply: "ok"}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  // 3 prior messages on record.
  base := time.Now().UTC().Add(-time.Hour)
  for i := 0; i < 3; i++ {
    role := types.RoleUser
    if i%2 == 1 {
      role = types.RoleAssistant
    }
    _, err := repo.CreateMessages(context.Background(), nil, []*types.Message{{
      UserID:    userID,
      Role:      role,
      Content:   fmt.Sprintf("prior-%d", i),
      CreatedAt: base.Add(time.Duration(i) * time.Minute),
    }})
    require.NoError(t, err)
  }

  _, err := svc.SendMessage(authedContext(userID), "new question")
  require.NoError(t, err)

  // system + 3 history + new user message
  require.Len(t, prov.last, 5)
  require.Equal(t, types.RoleSystem, prov.last[0].Role)
  require.Contains(t, prov.last[0].Content, "AI coach and companion")
  require.Equal(t, "prior-0", prov.last[1].Content)
  require.Equal(t, "prior-2", prov.last[3].Content)
  require.Equal(t, types.RoleUser, prov.last[4].Role)
  require.Equal(t, "new question", prov.last[4].Content)

  // Two more rows landed; five total.
  require.EqualValues(t, 5, countMessages(t, db, userID))
}

func TestChatService_SendMessage_HistoryWindow(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  prov := &recordingCompletion{reply: "ok"}
  svc := NewChatService(db, log, repo, prov, 2, false)
  userID := uuid.New()

  base := time.Now().UTC().Add(-time.Hour)
  for i := 0; i < 6; i++ {
    _, err := repo.CreateMessages(context.Background(), nil, []*types.Message{{
      UserID:    userID,
      Role:      types.RoleUser,
      Content:   fmt.Sprintf("prior-%d", i),
      CreatedAt: base.Add(time.Duration(i) * time.Minute),
    }})
    require.NoError(t, err)
  }

  _, err := svc.SendMessage(authedContext(userID), "new")
  require.NoError(t, err)

  // system + 2-message window + new message
  require.Len(t, prov.last, 4)
  require.Equal(t, "prior-4", prov.last[1].Content)
  require.Equal(t, "prior-5", prov.last[2].Content)
}

func TestChatService_SendMessage_Unauthorized_NoWrites(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  prov := &recordingCompletion{reply: "ok"}
  svc := NewChatService(db, log, repo, prov, 10, false)

  _, err := svc.SendMessage(context.Background(), "Hello")
  require.ErrorIs(t, err, ErrUnauthorized)
  require.Zero(t, prov.calls, "provider must not be called without identity")

  var count int64
  require.NoError(t, db.Model(&types.Message{}).Count(&count).Error)
  require.Zero(t, count)
}

func TestChatService_SendMessage_ProviderFailure_NoWrites(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  prov := &recordingCompletion{err: errors.New("upstream 500")}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  _, err := svc.SendMessage(authedContext(userID), "Hello")
  require.ErrorIs(t, err, ErrGenerationFailed)
  require.Zero(t, countMessages(t, db, userID), "a failed generation must leave zero rows")
}

func TestChatService_SendMessage_EmptyReply_NoWrites(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  prov := &recordingCompletion{reply: "   "}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  _, err := svc.SendMessage(authedContext(userID), "Hello")
  require.ErrorIs(t, err, ErrGenerationFailed)
  require.Zero(t, countMessages(t, db, userID))
}

func TestChatService_SendMessage_HistoryLoadFailure_StillReplies(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := &brokenHistoryRepo{MessageRepo: repos.NewMessageRepo(db, log)}
  prov := &recordingCompletion{reply: "still here"}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  reply, err := svc.SendMessage(authedContext(userID), "Hello")
  require.NoError(t, err, "a failed history read must not fail the exchange")
  require.Equal(t, "still here", reply)

  // Prompt degraded to system + the new message only.
  require.Len(t, prov.last, 2)
  require.Equal(t, types.RoleSystem, prov.last[0].Role)
  require.Equal(t, "Hello", prov.last[1].Content)

  // The exchange still got persisted.
  require.EqualValues(t, 2, countMessages(t, db, userID))
}

func TestChatService_SendMessage_WriteFailure_StillReplies(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := &brokenWriteRepo{MessageRepo: repos.NewMessageRepo(db, log)}
  prov := &recordingCompletion{reply: "still replying"}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  // Best-effort default: a failed write must not cost the caller the reply.
  reply, err := svc.SendMessage(authedContext(userID), "Hello")
  require.NoError(t, err)
  require.Equal(t, "still replying", reply)
  require.Zero(t, countMessages(t, db, userID))
}

func TestChatService_SendMessage_WriteFailure_RecordsDegradation(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := &brokenWriteRepo{MessageRepo: repos.NewMessageRepo(db, log)}
  prov := &recordingCompletion{reply: "still replying"}
  svc := NewChatService(db, log, repo, prov, 10, false)
  userID := uuid.New()

  ctx := errordata.WithErrorData(requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID}))

  _, err := svc.SendMessage(ctx, "Hello")
  require.NoError(t, err)
  ed := errordata.GetErrorData(ctx)
  require.NotNil(t, ed)
  require.True(t, ed.HasNotes(), "the swallowed write failure must be observable in the request's error notes")
}

func TestChatService_SendMessage_WriteFailure_StrictMode(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := &brokenWriteRepo{MessageRepo: repos.NewMessageRepo(db, log)}
  prov := &recordingCompletion{reply: "still replying"}
  svc := NewChatService(db, log, repo, prov, 10, true)
  userID := uuid.New()

  _, err := svc.SendMessage(authedContext(userID), "Hello")
  require.Error(t, err, "strict persistence must surface the write failure")
  require.NotErrorIs(t, err, ErrUnauthorized)
}

func TestChatService_GetHistory_ReturnsAllChronological(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  repo := repos.NewMessageRepo(db, log)
  svc := NewChatService(db, log, repo, &recordingCompletion{reply: "ok"}, 10, false)
  userID := uuid.New()

  base := time.Now().UTC().Add(-time.Hour)
  for i := 0; i < 12; i++ {
    _, err := repo.CreateMessages(context.Background(), nil, []*types.Message{{
      UserID:    userID,
      Role:      types.RoleUser,
      Content:   fmt.Sprintf("msg-%d", i),
      CreatedAt: base.Add(time.Duration(i) * time.Minute),
    }})
    require.NoError(t, err)
  }

  msgs, err := svc.GetHistory(authedContext(userID))
  require.NoError(t, err)
  // History endpoint is not clamped to the prompt window.
  require.Len(t, msgs, 12)
  require.Equal(t, "msg-0", msgs[0].Content)
  require.Equal(t, "msg-11", msgs[11].Content)
}

func TestChatService_GetHistory_Unauthorized(t *testing.T) {
  db := openTestDB(t)
  log := testLogger(t)
  svc := NewChatService(db, log, repos.NewMessageRepo(db, log), &recordingCompletion{}, 10, false)

  _, err := svc.GetHistory(context.Background())
  require.ErrorIs(t, err, ErrUnauthorized)
}
