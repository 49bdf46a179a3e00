package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

// AISettings is the JSON blob collected by the onboarding wizard. Every
// field may be empty; language defaults to "en".
type AISettings struct {
  UserNickname    string    `json:"userNickname"`
  AINickname      string    `json:"aiNickname"`
  Role            string    `json:"role"`
  Background      string    `json:"background"`
  Reminder        string    `json:"reminder"`
  Language        string    `json:"language"`
}

// UserSettings holds at most one row per user; writes replace the whole
// settings blob, never merge into it.
type UserSettings struct {
  gorm.Model
  ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  UserID      uuid.UUID         `gorm:"uniqueIndex;not null" json:"userId"`
  User        *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Settings    datatypes.JSON    `gorm:"not null;column:settings" json:"settings"`

  CreatedAt   time.Time         `gorm:"not null" json:"createdAt"`
  UpdatedAt   time.Time         `gorm:"not null" json:"updatedAt"`
}

func (UserSettings) TableName() string {
  return "user_settings"
}
