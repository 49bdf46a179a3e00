package services

import (
  "context"
  "fmt"
  "testing"

  gormsqlite "github.com/glebarez/sqlite"
  "github.com/google/uuid"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/requestdata"
  "github.com/haven-labs/haven-backend/internal/types"
)

func openTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
  db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
  require.NoError(t, err, "open sqlite")
  require.NoError(t, db.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.OneTimeCode{},
    &types.Message{},
    &types.UserSettings{},
  ), "automigrate")
  return db
}

func testLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err, "init logger")
  return log
}

func authedContext(userID uuid.UUID) context.Context {
  return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
    UserID: userID,
  })
}
