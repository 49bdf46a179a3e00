package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

// OneTimeCode backs the email-verification link sent on sign up.
type OneTimeCode struct {
  gorm.Model
  ID                  uuid.UUID                 `gorm:"type:uuid;primaryKey"`
  UserID              uuid.UUID                 `gorm:"index;not null"`
  User                *User                     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`

  Code                string                    `gorm:"uniqueIndex;not null;column:code"`
  ExpiresAt           time.Time                 `gorm:"column:expires_at"`
  Used                bool                      `gorm:"not null;default:false"`

  CreatedAt           time.Time                 `gorm:"not null"`
  UpdatedAt           time.Time                 `gorm:"not null"`
}

func (OneTimeCode) TableName() string {
  return "one_time_code"
}
