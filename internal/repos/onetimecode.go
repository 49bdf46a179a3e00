package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

type OneTimeCodeRepo interface {
  // CREATE
  Create(ctx context.Context, tx *gorm.DB, otCodes []*types.OneTimeCode) ([]*types.OneTimeCode, error)

  // READ
  GetByCodes(ctx context.Context, tx *gorm.DB, codes []string) ([]*types.OneTimeCode, error)

  // PARTIAL UPDATE
  MarkUsed(ctx context.Context, tx *gorm.DB, otCodeID uuid.UUID) error
}

type oneTimeCodeRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewOneTimeCodeRepo(db *gorm.DB, baseLog *logger.Logger) OneTimeCodeRepo {
  return &oneTimeCodeRepo{db: db, log: baseLog.With("repo", "OneTimeCodeRepo")}
}

//------------------------------------------------------------------------------
// CREATE
//------------------------------------------------------------------------------

func (ocr *oneTimeCodeRepo) Create(ctx context.Context, tx *gorm.DB, otCodes []*types.OneTimeCode) ([]*types.OneTimeCode, error) {
  transaction := tx
  if transaction == nil {
    transaction = ocr.db
    ocr.log.Debug("Transaction is nil, using ocr.db")
  }
  if len(otCodes) == 0 {
    ocr.log.Debug("No OneTimeCodes provided, returning empty slice")
    return []*types.OneTimeCode{}, nil
  }
  for _, code := range otCodes {
    if code.ID == uuid.Nil {
      code.ID = uuid.New()
    }
  }
  if err := transaction.WithContext(ctx).Create(&otCodes).Error; err != nil {
    ocr.log.Error("Failed to create one-time codes", "error", err)
    return nil, err
  }
  ocr.log.Info("Successfully created one-time codes", "count", len(otCodes))
  return otCodes, nil
}

//------------------------------------------------------------------------------
// READ
//------------------------------------------------------------------------------

func (ocr *oneTimeCodeRepo) GetByCodes(ctx context.Context, tx *gorm.DB, codes []string) ([]*types.OneTimeCode, error) {
  transaction := tx
  if transaction == nil {
    transaction = ocr.db
  }
  var results []*types.OneTimeCode
  if len(codes) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("code IN ?", codes).
    Find(&results).Error; err != nil {
    ocr.log.Error("Failed to fetch one-time codes by codes", "error", err)
    return nil, err
  }
  return results, nil
}

//------------------------------------------------------------------------------
// PARTIAL UPDATE
//------------------------------------------------------------------------------

func (ocr *oneTimeCodeRepo) MarkUsed(ctx context.Context, tx *gorm.DB, otCodeID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = ocr.db
  }
  if err := transaction.WithContext(ctx).
    Model(&types.OneTimeCode{}).
    Where("id = ?", otCodeID).
    Update("used", true).Error; err != nil {
    ocr.log.Error("Failed to mark one-time code used", "error", err, "otCodeID", otCodeID)
    return err
  }
  return nil
}
