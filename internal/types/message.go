package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// Message roles. Tool results are carried inside the assistant
// message's ToolCalls column rather than as rows of their own, so the
// persisted log only ever holds RoleUser and RoleAssistant.
const (
  RoleUser      = "user"
  RoleAssistant = "assistant"
  RoleTool      = "tool"
)

// Message is one immutable entry of a conversation. Seq is assigned by
// the database (bigserial) and is the ordering readers rely on;
// CreatedAt alone can tie under concurrent inserts.
type Message struct {
  ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ConversationID uuid.UUID      `gorm:"index;not null" json:"conversationID"`
  UserID         uuid.UUID      `gorm:"index;not null" json:"userID"`
  Seq            int64          `gorm:"type:bigserial;not null;uniqueIndex;column:seq" json:"seq"`
  Role           string         `gorm:"not null;column:role" json:"role"`
  Content        string         `gorm:"type:text;not null;column:content" json:"content"`
  ToolCalls      datatypes.JSON `gorm:"column:tool_calls" json:"toolCalls,omitempty"`
  CreatedAt      time.Time      `gorm:"not null;default:now()" json:"createdAt"`
}

func (Message) TableName() string {
  return "message"
}
