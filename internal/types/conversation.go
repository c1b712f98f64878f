package types

import (
  "time"

  "github.com/google/uuid"
)

type Conversation struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID    uuid.UUID `gorm:"index;not null" json:"userID"`
  Title     string    `gorm:"column:title" json:"title,omitempty"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Conversation) TableName() string {
  return "conversation"
}
