package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

// MessageRepo owns the append-only message log. Messages are never
// updated or deleted; each append also bumps the parent conversation's
// updated_at inside the same transaction so the listing order stays in
// step with the log.
type MessageRepo interface {
  Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error)
  GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error)
}

type messageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
  return &messageRepo{
    db:  db,
    log: baseLog.With("repo", "MessageRepo"),
  }
}

func (mr *messageRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
  appendIn := func(tx *gorm.DB) error {
    if msg.ID == uuid.Nil {
      msg.ID = uuid.New()
    }
    // Seq is left to the database: bigserial assignment is what gives
    // appends a total order even when timestamps collide.
    if err := tx.WithContext(ctx).Omit("seq").Create(msg).Error; err != nil {
      return err
    }
    var saved types.Message
    if err := tx.WithContext(ctx).
      Where("id = ?", msg.ID).
      First(&saved).Error; err != nil {
      return err
    }
    *msg = saved
    return tx.WithContext(ctx).
      Model(&types.Conversation{}).
      Where("id = ?", msg.ConversationID).
      Update("updated_at", gorm.Expr("now()")).Error
  }
  var err error
  if tx != nil {
    err = appendIn(tx)
  } else {
    err = mr.db.WithContext(ctx).Transaction(appendIn)
  }
  if err != nil {
    mr.log.Error("failed to append message", "error", err)
    return nil, err
  }
  return msg, nil
}

func (mr *messageRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
  if tx == nil {
    tx = mr.db
  }
  var msgs []*types.Message
  if err := tx.WithContext(ctx).
    Where("conversation_id = ?", conversationID).
    Order("seq ASC").
    Find(&msgs).Error; err != nil {
    mr.log.Error("failed to get messages by conversationID", "error", err)
    return nil, err
  }
  return msgs, nil
}
