package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/repos"
  "github.com/haven-labs/haven-backend/internal/requestdata"
  "github.com/haven-labs/haven-backend/internal/types"
)

// ErrSettingsNotFound is the first-run signal: the user has not completed
// onboarding yet. Not a failure.
var ErrSettingsNotFound = errors.New("settings not found")

type SettingsService interface {
  Get(ctx context.Context) (*types.AISettings, error)
  Upsert(ctx context.Context, settings types.AISettings) (*types.UserSettings, error)
}

type settingsService struct {
  db               *gorm.DB
  log              *logger.Logger
  userSettingsRepo repos.UserSettingsRepo
}

func NewSettingsService(db *gorm.DB, log *logger.Logger, userSettingsRepo repos.UserSettingsRepo) SettingsService {
  serviceLog := log.With("service", "SettingsService")
  return &settingsService{
    db:               db,
    log:              serviceLog,
    userSettingsRepo: userSettingsRepo,
  }
}

func (ss *settingsService) Get(ctx context.Context) (*types.AISettings, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    ss.log.Warn("No caller identity in context, rejecting settings request.")
    return nil, ErrUnauthorized
  }
  row, err := ss.userSettingsRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrSettingsNotFound
    }
    ss.log.Warn("Failed to fetch user settings, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to fetch user settings: %w", err)
  }
  var settings types.AISettings
  if err := json.Unmarshal(row.Settings, &settings); err != nil {
    ss.log.Warn("Failed to decode stored settings blob, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to decode stored settings blob: %w", err)
  }
  return &settings, nil
}

func (ss *settingsService) Upsert(ctx context.Context, settings types.AISettings) (*types.UserSettings, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    ss.log.Warn("No caller identity in context, rejecting settings upsert.")
    return nil, ErrUnauthorized
  }
  if settings.Language == "" {
    settings.Language = "en"
  }
  blob, err := json.Marshal(settings)
  if err != nil {
    ss.log.Warn("Failed to encode settings blob, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to encode settings blob: %w", err)
  }
  row := &types.UserSettings{
    UserID:   rd.UserID,
    Settings: datatypes.JSON(blob),
  }
  saved, err := ss.userSettingsRepo.Upsert(ctx, nil, row)
  if err != nil {
    ss.log.Warn("Failed to upsert user settings, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to upsert user settings: %w", err)
  }
  return saved, nil
}
