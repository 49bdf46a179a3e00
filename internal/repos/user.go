package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

type UserRepo interface {
  // CREATE
  Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)

  // READ
  GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
  GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error)
  EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)

  // PARTIAL UPDATE
  MarkVerified(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

//------------------------------------------------------------------------------
// CREATE
//------------------------------------------------------------------------------

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
    ur.log.Debug("Transaction is nil, using ur.db")
  }
  if len(users) == 0 {
    ur.log.Debug("No users provided, returning empty slice")
    return []*types.User{}, nil
  }
  for _, user := range users {
    if user.ID == uuid.Nil {
      user.ID = uuid.New()
    }
  }
  if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
    ur.log.Error("Failed to create users", "error", err)
    return nil, err
  }
  ur.log.Info("Successfully created users", "count", len(users))
  return users, nil
}

//------------------------------------------------------------------------------
// READ
//------------------------------------------------------------------------------

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var results []*types.User
  if len(userIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", userIDs).
    Find(&results).Error; err != nil {
    ur.log.Error("Failed to fetch users by IDs", "error", err)
    return nil, err
  }
  return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var results []*types.User
  if len(emails) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("email IN ?", emails).
    Find(&results).Error; err != nil {
    ur.log.Error("Failed to fetch users by emails", "error", err)
    return nil, err
  }
  return results, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("email = ?", email).
    Count(&count).Error; err != nil {
    ur.log.Error("Failed to count users by email", "error", err)
    return false, err
  }
  return count > 0, nil
}

//------------------------------------------------------------------------------
// PARTIAL UPDATE
//------------------------------------------------------------------------------

func (ur *userRepo) MarkVerified(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = ur.db
  }
  if err := transaction.WithContext(ctx).
    Model(&types.User{}).
    Where("id = ?", userID).
    Update("verified", true).Error; err != nil {
    ur.log.Error("Failed to mark user verified", "error", err, "userID", userID)
    return err
  }
  return nil
}
