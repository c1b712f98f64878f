package services

import (
  "context"
  "encoding/json"
  "strings"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/repos"
  "github.com/taskchat-org/taskchat-backend/internal/requestdata"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

const maxMessageLength = 4000

// ChatService runs one chat turn end to end: resolve or create the
// conversation, append the user message, run the agent, append the
// assistant reply. The user message always survives; the assistant
// message is only written when the whole turn succeeded, so a failed
// turn leaves the conversation consistent and retryable.
type ChatService interface {
  SendMessage(ctx context.Context, conversationID *uuid.UUID, text string) (*types.ChatResponse, error)
  GetUserConversations(ctx context.Context) ([]*types.Conversation, error)
  GetConversationWithMessages(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, []*types.Message, error)
}

type chatService struct {
  db        *gorm.DB
  log       *logger.Logger
  convoRepo repos.ConversationRepo
  msgRepo   repos.MessageRepo
  agent     AgentService
  locker    ConvoLocker
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  convoRepo repos.ConversationRepo,
  msgRepo repos.MessageRepo,
  agent AgentService,
  locker ConvoLocker,
) ChatService {
  return &chatService{
    db:        db,
    log:       log.With("service", "ChatService"),
    convoRepo: convoRepo,
    msgRepo:   msgRepo,
    agent:     agent,
    locker:    locker,
  }
}

func (cs *chatService) SendMessage(ctx context.Context, conversationID *uuid.UUID, text string) (*types.ChatResponse, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperr.New(apperr.CodeUnauthorized, "no authenticated user on request")
  }
  text = strings.TrimSpace(text)
  if text == "" {
    return nil, apperr.New(apperr.CodeValidation, "message must not be empty")
  }
  if len(text) > maxMessageLength {
    return nil, apperr.Newf(apperr.CodeValidation, "message exceeds %d characters", maxMessageLength)
  }

  //1) Resolve or create the conversation
  var convo *types.Conversation
  var err error
  if conversationID != nil {
    convo, err = cs.convoRepo.GetByID(ctx, nil, rd.UserID, *conversationID)
    if err != nil {
      return nil, err
    }
  } else {
    convo, err = cs.convoRepo.Create(ctx, nil, &types.Conversation{UserID: rd.UserID})
    if err != nil {
      return nil, err
    }
  }

  //2) Serialize turns on this conversation
  release, err := cs.locker.Acquire(ctx, convo.ID)
  if err != nil {
    return nil, err
  }
  defer release()

  //3) Load history under the lock so a concurrent turn's messages are
  //   either fully present or not yet started
  history, err := cs.msgRepo.GetByConversationID(ctx, nil, convo.ID)
  if err != nil {
    return nil, err
  }

  //4) Persist the user message before the model runs; it stays even if
  //   the rest of the turn fails
  if _, err := cs.msgRepo.Append(ctx, nil, &types.Message{
    ConversationID: convo.ID,
    UserID:         rd.UserID,
    Role:           types.RoleUser,
    Content:        text,
  }); err != nil {
    return nil, err
  }

  //5) Run the agent loop
  reply, callLog, err := cs.agent.RunTurn(ctx, rd.UserID, history, text)
  if err != nil {
    cs.log.Warn("turn failed after user message was persisted", "conversationID", convo.ID, "error", err)
    return nil, err
  }

  //6) Persist the assistant reply with the turn's tool-call log
  assistant := &types.Message{
    ConversationID: convo.ID,
    UserID:         rd.UserID,
    Role:           types.RoleAssistant,
    Content:        reply,
  }
  if len(callLog) > 0 {
    raw, marshalErr := json.Marshal(callLog)
    if marshalErr != nil {
      return nil, apperr.Wrap(apperr.CodeInternal, "failed to serialize tool-call log", marshalErr)
    }
    assistant.ToolCalls = raw
  }
  if _, err := cs.msgRepo.Append(ctx, nil, assistant); err != nil {
    return nil, err
  }

  if callLog == nil {
    callLog = []types.ToolCallRecord{}
  }
  return &types.ChatResponse{
    ConversationID: convo.ID,
    Response:       reply,
    ToolCalls:      callLog,
  }, nil
}

func (cs *chatService) GetUserConversations(ctx context.Context) ([]*types.Conversation, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apperr.New(apperr.CodeUnauthorized, "no authenticated user on request")
  }
  return cs.convoRepo.GetUserConversations(ctx, nil, rd.UserID)
}

func (cs *chatService) GetConversationWithMessages(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, []*types.Message, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, nil, apperr.New(apperr.CodeUnauthorized, "no authenticated user on request")
  }
  convo, err := cs.convoRepo.GetByID(ctx, nil, rd.UserID, conversationID)
  if err != nil {
    return nil, nil, err
  }
  msgs, err := cs.msgRepo.GetByConversationID(ctx, nil, convo.ID)
  if err != nil {
    return nil, nil, err
  }
  return convo, msgs, nil
}
