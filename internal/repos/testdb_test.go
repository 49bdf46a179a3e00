package repos

import (
  "fmt"
  "testing"

  gormsqlite "github.com/glebarez/sqlite"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

// openTestDB gives each test its own in-memory database, shared across the
// connection pool via the named cache.
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
