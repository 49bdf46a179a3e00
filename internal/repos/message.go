package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

type MessageRepo interface {
  // CREATE
  CreateMessages(ctx context.Context, tx *gorm.DB, msgs []*types.Message) ([]*types.Message, error)

  // READ
  GetAllByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Message, error)
  GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

//------------------------------------------------------------------------------
// CREATE
//------------------------------------------------------------------------------

func (mr *messageRepo) CreateMessages(ctx context.Context, tx *gorm.DB, msgs []*types.Message) ([]*types.Message, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
    mr.log.Debug("Transaction is nil, using mr.db")
  }
  if len(msgs) == 0 {
    mr.log.Debug("No messages provided, returning empty slice")
    return msgs, nil
  }
  for _, msg := range msgs {
    if msg.ID == uuid.Nil {
      msg.ID = uuid.New()
    }
    if msg.CreatedAt.IsZero() {
      msg.CreatedAt = time.Now().UTC()
    }
  }
  if err := transaction.WithContext(ctx).Create(&msgs).Error; err != nil {
    mr.log.Error("Failed to create messages", "error", err)
    return nil, err
  }
  return msgs, nil
}

//------------------------------------------------------------------------------
// READ
//------------------------------------------------------------------------------

func (mr *messageRepo) GetAllByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Message, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var msgs []*types.Message
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at ASC").
    Find(&msgs).Error; err != nil {
    mr.log.Error("Failed to get messages by userID", "error", err)
    return nil, err
  }
  return msgs, nil
}

// GetRecentByUserID returns at most limit messages for the user, oldest
// first. The query walks the index newest-first and the result is reversed
// in memory.
func (mr *messageRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Message, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var msgs []*types.Message
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC").
    Limit(limit).
    Find(&msgs).Error; err != nil {
    mr.log.Error("Failed to get recent messages by userID", "error", err)
    return nil, err
  }
  for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
    msgs[i], msgs[j] = msgs[j], msgs[i]
  }
  return msgs, nil
}
