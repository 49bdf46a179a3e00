package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

// Message is one turn of a user's conversation. Rows are only ever inserted
// by the chat service; nothing updates or deletes them. created_at defines
// the order of the conversation.
type Message struct {
  gorm.Model
  ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  UserID      uuid.UUID       `gorm:"index;not null" json:"userId"`
  User        *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`

  Role        string          `gorm:"not null;column:role" json:"role"`
  Content     string          `gorm:"type:text;not null;column:content" json:"content"`

  CreatedAt   time.Time       `gorm:"not null" json:"createdAt"`
  UpdatedAt   time.Time       `gorm:"not null" json:"-"`
}

func (Message) TableName() string {
  return "message"
}

const (
  RoleSystem    = "system"
  RoleUser      = "user"
  RoleAssistant = "assistant"
)
