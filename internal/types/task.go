package types

import (
  "time"

  "github.com/google/uuid"
)

type Task struct {
  ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID      uuid.UUID `gorm:"index;not null" json:"userID"`
  Title       string    `gorm:"size:200;not null;column:title" json:"title"`
  Description string    `gorm:"size:1000;column:description" json:"description,omitempty"`
  Completed   bool      `gorm:"not null;default:false;column:completed" json:"completed"`
  CreatedAt   time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (Task) TableName() string {
  return "task"
}

// Status filter values accepted by task listing, both over the API and
// from the list_tasks tool.
const (
  TaskStatusAll       = "all"
  TaskStatusPending   = "pending"
  TaskStatusCompleted = "completed"
)
