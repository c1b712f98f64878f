package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

type ConversationRepo interface {
  Create(ctx context.Context, tx *gorm.DB, convo *types.Conversation) (*types.Conversation, error)
  // GetByID enforces ownership: a conversation that exists but belongs
  // to another user reports NotFound, same as a missing one, so callers
  // cannot probe for foreign conversation ids.
  GetByID(ctx context.Context, tx *gorm.DB, userID, convoID uuid.UUID) (*types.Conversation, error)
  GetUserConversations(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
}

type conversationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
  return &conversationRepo{
    db:  db,
    log: baseLog.With("repo", "ConversationRepo"),
  }
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, convo *types.Conversation) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  if convo.ID == uuid.Nil {
    convo.ID = uuid.New()
  }
  if err := tx.WithContext(ctx).Create(convo).Error; err != nil {
    cr.log.Error("failed to create conversation", "error", err)
    return nil, err
  }
  return convo, nil
}

func (cr *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, convoID uuid.UUID) (*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var c types.Conversation
  if err := tx.WithContext(ctx).
    Where("id = ?", convoID).
    First(&c).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apperr.New(apperr.CodeNotFound, "conversation not found")
    }
    return nil, err
  }
  if c.UserID != userID {
    return nil, apperr.New(apperr.CodeNotFound, "conversation not found")
  }
  return &c, nil
}

func (cr *conversationRepo) GetUserConversations(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
  if tx == nil {
    tx = cr.db
  }
  var convos []*types.Conversation
  if err := tx.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("updated_at DESC").
    Find(&convos).Error; err != nil {
    cr.log.Error("failed to list conversations", "error", err)
    return nil, err
  }
  return convos, nil
}
