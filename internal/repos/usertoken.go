package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

type UserTokenRepo interface {
  // CREATE
  Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error)

  // READ
  GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error)
  GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error)
  GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error)

  // FULL (HARD) DELETE
  FullDeleteByTokens(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) error
}

type userTokenRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
  return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

//------------------------------------------------------------------------------
// CREATE
//------------------------------------------------------------------------------

func (utr *userTokenRepo) Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
    utr.log.Debug("Transaction is nil, using utr.db")
  }
  if len(userTokens) == 0 {
    utr.log.Debug("No userTokens provided, returning empty slice")
    return []*types.UserToken{}, nil
  }
  for _, token := range userTokens {
    if token.ID == uuid.Nil {
      token.ID = uuid.New()
    }
  }
  if err := transaction.WithContext(ctx).Create(&userTokens).Error; err != nil {
    utr.log.Error("Failed to create userTokens", "error", err)
    return nil, err
  }
  utr.log.Info("Successfully created userTokens", "count", len(userTokens))
  return userTokens, nil
}

//------------------------------------------------------------------------------
// READ
//------------------------------------------------------------------------------

func (utr *userTokenRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  var results []*types.UserToken
  if len(userIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("user_id IN ?", userIDs).
    Find(&results).Error; err != nil {
    utr.log.Error("Failed to fetch userTokens by userIDs", "error", err)
    return nil, err
  }
  return results, nil
}

func (utr *userTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  var results []*types.UserToken
  if len(accessTokens) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("access_token IN ?", accessTokens).
    Find(&results).Error; err != nil {
    utr.log.Error("Failed to fetch userTokens by accessTokens", "error", err)
    return nil, err
  }
  return results, nil
}

func (utr *userTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  var results []*types.UserToken
  if len(refreshTokens) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("refresh_token IN ?", refreshTokens).
    Find(&results).Error; err != nil {
    utr.log.Error("Failed to fetch userTokens by refreshTokens", "error", err)
    return nil, err
  }
  return results, nil
}

//------------------------------------------------------------------------------
// FULL (HARD) DELETE
//------------------------------------------------------------------------------

func (utr *userTokenRepo) FullDeleteByTokens(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) error {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  if len(userTokens) == 0 {
    return nil
  }
  ids := make([]uuid.UUID, 0, len(userTokens))
  for _, token := range userTokens {
    if token != nil {
      ids = append(ids, token.ID)
    }
  }
  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("id IN ?", ids).
    Delete(&types.UserToken{}).Error; err != nil {
    utr.log.Error("Failed to hard delete userTokens", "error", err)
    return err
  }
  return nil
}
