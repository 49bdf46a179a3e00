package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

type UserToken struct {
  gorm.Model
  ID                  uuid.UUID                 `gorm:"type:uuid;primaryKey"`
  UserID              uuid.UUID                 `gorm:"index;not null"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`

  AccessToken         string                    `gorm:"uniqueIndex;not null;column:access_token"`
  RefreshToken        string                    `gorm:"uniqueIndex;not null;column:refresh_token"`
  ExpiresAt           time.Time                 `gorm:"column:expires_at"`

  CreatedAt           time.Time                 `gorm:"not null"`
  UpdatedAt           time.Time                 `gorm:"not null"`
}

func (UserToken) TableName() string {
  return "user_token"
}
