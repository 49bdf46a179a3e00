package repos

import (
  "context"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/require"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/haven-labs/haven-backend/internal/types"
)

func TestUserSettingsRepo_GetByUserID_NotFound(t *testing.T) {
  db := openTestDB(t)
  repo := NewUserSettingsRepo(db, testLogger(t))

  _, err := repo.GetByUserID(context.Background(), nil, uuid.New())
  require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserSettingsRepo_Upsert_CreatesThenReplaces(t *testing.T) {
  db := openTestDB(t)
  repo := NewUserSettingsRepo(db, testLogger(t))
  userID := uuid.New()

  first := &types.UserSettings{
    UserID:   userID,
    Settings: datatypes.JSON([]byte(`{"userNickname":"Sam","language":"en"}`)),
  }
  _, err := repo.Upsert(context.Background(), nil, first)
  require.NoError(t, err)

  second := &types.UserSettings{
    UserID:   userID,
    Settings: datatypes.JSON([]byte(`{"userNickname":"Samuel","language":"zh"}`)),
  }
  _, err = repo.Upsert(context.Background(), nil, second)
  require.NoError(t, err)

  var count int64
  require.NoError(t, db.Model(&types.UserSettings{}).Where("user_id = ?", userID).Count(&count).Error)
  require.EqualValues(t, 1, count, "upsert must keep a single row per user")

  got, err := repo.GetByUserID(context.Background(), nil, userID)
  require.NoError(t, err)
  require.JSONEq(t, `{"userNickname":"Samuel","language":"zh"}`, string(got.Settings))
}

func TestUserSettingsRepo_Upsert_IsolatedPerUser(t *testing.T) {
  db := openTestDB(t)
  repo := NewUserSettingsRepo(db, testLogger(t))
  alice := uuid.New()
  bob := uuid.New()

  _, err := repo.Upsert(context.Background(), nil, &types.UserSettings{
    UserID:   alice,
    Settings: datatypes.JSON([]byte(`{"language":"en"}`)),
  })
  require.NoError(t, err)
  _, err = repo.Upsert(context.Background(), nil, &types.UserSettings{
    UserID:   bob,
    Settings: datatypes.JSON([]byte(`{"language":"zh"}`)),
  })
  require.NoError(t, err)

  got, err := repo.GetByUserID(context.Background(), nil, alice)
  require.NoError(t, err)
  require.JSONEq(t, `{"language":"en"}`, string(got.Settings))
}
