package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

type UserSettingsRepo interface {
  // READ
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserSettings, error)

  // UPSERT (create-or-replace, never a partial merge)
  Upsert(ctx context.Context, tx *gorm.DB, settings *types.UserSettings) (*types.UserSettings, error)
}

type userSettingsRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserSettingsRepo(db *gorm.DB, baseLog *logger.Logger) UserSettingsRepo {
  return &userSettingsRepo{db: db, log: baseLog.With("repo", "UserSettingsRepo")}
}

func (usr *userSettingsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserSettings, error) {
  transaction := tx
  if transaction == nil {
    transaction = usr.db
  }
  var s types.UserSettings
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    First(&s).Error; err != nil {
    return nil, err
  }
  return &s, nil
}

func (usr *userSettingsRepo) Upsert(ctx context.Context, tx *gorm.DB, settings *types.UserSettings) (*types.UserSettings, error) {
  transaction := tx
  if transaction == nil {
    transaction = usr.db
    usr.log.Debug("Transaction is nil, using usr.db")
  }
  if settings.ID == uuid.Nil {
    settings.ID = uuid.New()
  }
  settings.UpdatedAt = time.Now().UTC()
  if err := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "user_id"}},
      DoUpdates: clause.AssignmentColumns([]string{"settings", "updated_at"}),
    }).
    Create(settings).Error; err != nil {
    usr.log.Error("Failed to upsert user settings", "error", err)
    return nil, err
  }
  return settings, nil
}
