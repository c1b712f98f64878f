package services

import (
  "context"
  "encoding/json"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/requestdata"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

type fakeConvoRepo struct {
  convos map[uuid.UUID]*types.Conversation
}

func newFakeConvoRepo() *fakeConvoRepo {
  return &fakeConvoRepo{convos: map[uuid.UUID]*types.Conversation{}}
}

func (f *fakeConvoRepo) Create(ctx context.Context, tx *gorm.DB, convo *types.Conversation) (*types.Conversation, error) {
  if convo.ID == uuid.Nil {
    convo.ID = uuid.New()
  }
  f.convos[convo.ID] = convo
  return convo, nil
}

func (f *fakeConvoRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, convoID uuid.UUID) (*types.Conversation, error) {
  convo, ok := f.convos[convoID]
  if !ok || convo.UserID != userID {
    return nil, apperr.New(apperr.CodeNotFound, "conversation not found")
  }
  return convo, nil
}

func (f *fakeConvoRepo) GetUserConversations(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
  var out []*types.Conversation
  for _, convo := range f.convos {
    if convo.UserID == userID {
      out = append(out, convo)
    }
  }
  return out, nil
}

type fakeMsgRepo struct {
  appended []*types.Message
}

func (f *fakeMsgRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
  if msg.ID == uuid.Nil {
    msg.ID = uuid.New()
  }
  msg.Seq = int64(len(f.appended) + 1)
  f.appended = append(f.appended, msg)
  return msg, nil
}

func (f *fakeMsgRepo) GetByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) ([]*types.Message, error) {
  var out []*types.Message
  for _, msg := range f.appended {
    if msg.ConversationID == conversationID {
      out = append(out, msg)
    }
  }
  return out, nil
}

type fakeAgent struct {
  reply   string
  callLog []types.ToolCallRecord
  err     error
  history []*types.Message
}

func (f *fakeAgent) RunTurn(ctx context.Context, userID uuid.UUID, history []*types.Message, userText string) (string, []types.ToolCallRecord, error) {
  f.history = history
  if f.err != nil {
    return "", nil, f.err
  }
  return f.reply, f.callLog, nil
}

type fakeLocker struct {
  err      error
  acquired int
  released int
}

func (f *fakeLocker) Acquire(ctx context.Context, conversationID uuid.UUID) (func(), error) {
  if f.err != nil {
    return nil, f.err
  }
  f.acquired++
  return func() { f.released++ }, nil
}

type chatFixture struct {
  svc    ChatService
  convos *fakeConvoRepo
  msgs   *fakeMsgRepo
  agent  *fakeAgent
  locker *fakeLocker
  userID uuid.UUID
  ctx    context.Context
}

func newChatFixture(t *testing.T) *chatFixture {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err)
  f := &chatFixture{
    convos: newFakeConvoRepo(),
    msgs:   &fakeMsgRepo{},
    agent:  &fakeAgent{reply: "done"},
    locker: &fakeLocker{},
    userID: uuid.New(),
  }
  f.svc = NewChatService(nil, log, f.convos, f.msgs, f.agent, f.locker)
  f.ctx = requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: f.userID})
  return f
}

func TestSendMessagePersistsUserAndAssistant(t *testing.T) {
  f := newChatFixture(t)
  f.agent.reply = "Task added!"

  resp, err := f.svc.SendMessage(f.ctx, nil, "Add a task to buy milk")
  require.NoError(t, err)
  assert.Equal(t, "Task added!", resp.Response)
  assert.NotEqual(t, uuid.Nil, resp.ConversationID)
  assert.NotNil(t, resp.ToolCalls)

  require.Len(t, f.msgs.appended, 2)
  assert.Equal(t, types.RoleUser, f.msgs.appended[0].Role)
  assert.Equal(t, "Add a task to buy milk", f.msgs.appended[0].Content)
  assert.Equal(t, types.RoleAssistant, f.msgs.appended[1].Role)
  assert.Equal(t, "Task added!", f.msgs.appended[1].Content)
  assert.Equal(t, 1, f.locker.acquired)
  assert.Equal(t, 1, f.locker.released)
}

func TestSendMessageStoresToolCallLog(t *testing.T) {
  f := newChatFixture(t)
  f.agent.callLog = []types.ToolCallRecord{
    {
      Tool:      "add_task",
      Arguments: map[string]interface{}{"title": "buy milk"},
      Result:    map[string]interface{}{"status": "created"},
    },
  }

  resp, err := f.svc.SendMessage(f.ctx, nil, "Add a task to buy milk")
  require.NoError(t, err)
  require.Len(t, resp.ToolCalls, 1)
  assert.Equal(t, "add_task", resp.ToolCalls[0].Tool)

  assistant := f.msgs.appended[1]
  require.NotEmpty(t, assistant.ToolCalls)
  var stored []types.ToolCallRecord
  require.NoError(t, json.Unmarshal(assistant.ToolCalls, &stored))
  require.Len(t, stored, 1)
  assert.Equal(t, "created", stored[0].Result["status"])
}

func TestSendMessageTurnFailureKeepsUserMessage(t *testing.T) {
  f := newChatFixture(t)
  f.agent.err = apperr.New(apperr.CodeGatewayError, "language model call failed")

  _, err := f.svc.SendMessage(f.ctx, nil, "hello")
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeGatewayError))

  // The user message survives; no assistant message is written.
  require.Len(t, f.msgs.appended, 1)
  assert.Equal(t, types.RoleUser, f.msgs.appended[0].Role)
  assert.Equal(t, 1, f.locker.released)
}

func TestSendMessageResumesExistingConversation(t *testing.T) {
  f := newChatFixture(t)
  convo, err := f.convos.Create(f.ctx, nil, &types.Conversation{UserID: f.userID})
  require.NoError(t, err)
  _, err = f.msgs.Append(f.ctx, nil, &types.Message{
    ConversationID: convo.ID,
    UserID:         f.userID,
    Role:           types.RoleUser,
    Content:        "earlier message",
  })
  require.NoError(t, err)

  resp, err := f.svc.SendMessage(f.ctx, &convo.ID, "and another thing")
  require.NoError(t, err)
  assert.Equal(t, convo.ID, resp.ConversationID)

  // The agent saw the prior history, not including the new message.
  require.Len(t, f.agent.history, 1)
  assert.Equal(t, "earlier message", f.agent.history[0].Content)
}

func TestSendMessageForeignConversation(t *testing.T) {
  f := newChatFixture(t)
  foreign, err := f.convos.Create(f.ctx, nil, &types.Conversation{UserID: uuid.New()})
  require.NoError(t, err)

  _, err = f.svc.SendMessage(f.ctx, &foreign.ID, "hello")
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
  assert.Empty(t, f.msgs.appended)
}

func TestSendMessageEmptyMessage(t *testing.T) {
  f := newChatFixture(t)
  _, err := f.svc.SendMessage(f.ctx, nil, "   ")
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
  assert.Equal(t, 0, f.locker.acquired)
  assert.Empty(t, f.msgs.appended)
}

func TestSendMessageOversizedMessage(t *testing.T) {
  f := newChatFixture(t)
  long := make([]byte, maxMessageLength+1)
  for i := range long {
    long[i] = 'a'
  }
  _, err := f.svc.SendMessage(f.ctx, nil, string(long))
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

func TestSendMessageBusyConversation(t *testing.T) {
  f := newChatFixture(t)
  f.locker.err = apperr.New(apperr.CodeBusy, "conversation is busy with another turn")

  _, err := f.svc.SendMessage(f.ctx, nil, "hello")
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeBusy))
  assert.Empty(t, f.msgs.appended)
}

func TestSendMessageRequiresAuthenticatedUser(t *testing.T) {
  f := newChatFixture(t)
  _, err := f.svc.SendMessage(context.Background(), nil, "hello")
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
}

func TestGetConversationWithMessages(t *testing.T) {
  f := newChatFixture(t)
  resp, err := f.svc.SendMessage(f.ctx, nil, "hello")
  require.NoError(t, err)

  convo, msgs, err := f.svc.GetConversationWithMessages(f.ctx, resp.ConversationID)
  require.NoError(t, err)
  assert.Equal(t, resp.ConversationID, convo.ID)
  require.Len(t, msgs, 2)
  assert.Equal(t, types.RoleUser, msgs[0].Role)
  assert.Equal(t, types.RoleAssistant, msgs[1].Role)
}
