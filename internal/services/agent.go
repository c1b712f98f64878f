package services

import (
  "context"
  "encoding/json"

  "github.com/google/uuid"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/tools"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

const systemPrompt = `You are a helpful task management assistant. You help users manage their todo list through natural language.

When users ask you to:
- Add/create/remember tasks -> use add_task
- Show/list tasks -> use list_tasks
- Mark tasks complete/done -> use complete_task
- Delete/remove tasks -> use delete_task
- Update/change tasks -> use update_task

Always confirm actions with friendly responses. Handle errors gracefully.

Examples:
- "Add a task to buy groceries" -> add_task with title "Buy groceries"
- "Show me all my tasks" -> list_tasks with status "all"
- "Mark the groceries task as done" -> First list tasks to find its id, then complete_task
- "Delete the meeting task" -> First list tasks to find it, then delete_task`

// ToolDispatcher is the slice of the tool registry the orchestrator
// needs: the catalog and a dispatch that never fails the turn.
type ToolDispatcher interface {
  Specs() []tools.Spec
  Dispatch(ctx context.Context, userID uuid.UUID, name, rawArgs string) map[string]interface{}
}

// AgentService drives one chat turn: call the model, execute whatever
// tools it asks for, feed the results back, and repeat until it answers
// in plain text or the round bound trips. It never touches the database
// itself; all task mutations go through the registry's handlers.
type AgentService interface {
  RunTurn(ctx context.Context, userID uuid.UUID, history []*types.Message, userText string) (string, []types.ToolCallRecord, error)
}

type agentService struct {
  log       *logger.Logger
  llm       LLMService
  registry  ToolDispatcher
  maxRounds int
}

func NewAgentService(log *logger.Logger, llm LLMService, registry ToolDispatcher, maxRounds int) AgentService {
  if maxRounds <= 0 {
    maxRounds = 8
  }
  return &agentService{
    log:       log.With("service", "AgentService"),
    llm:       llm,
    registry:  registry,
    maxRounds: maxRounds,
  }
}

func (as *agentService) RunTurn(ctx context.Context, userID uuid.UUID, history []*types.Message, userText string) (string, []types.ToolCallRecord, error) {
  transcript := make([]ChatEntry, 0, len(history)+2)
  transcript = append(transcript, ChatEntry{Role: "system", Content: systemPrompt})
  for _, msg := range history {
    if msg.Role != types.RoleUser && msg.Role != types.RoleAssistant {
      continue
    }
    transcript = append(transcript, ChatEntry{Role: msg.Role, Content: msg.Content})
  }
  transcript = append(transcript, ChatEntry{Role: types.RoleUser, Content: userText})

  var callLog []types.ToolCallRecord
  for round := 0; round < as.maxRounds; round++ {
    outcome, err := as.llm.Complete(ctx, transcript, as.registry.Specs())
    if err != nil {
      return "", nil, err
    }
    if outcome.IsFinal() {
      as.log.Debug("turn finished", "rounds", round+1, "toolCalls", len(callLog))
      return outcome.Reply, callLog, nil
    }

    transcript = append(transcript, ChatEntry{
      Role:      types.RoleAssistant,
      Content:   outcome.Reply,
      ToolCalls: outcome.ToolRequests,
    })

    // Tools in a round run to completion even if the request is
    // cancelled mid-round: aborting a half-applied mutation would
    // leave the task store inconsistent. Cancellation still stops
    // the loop at the next Complete call.
    toolCtx := context.WithoutCancel(ctx)
    for _, req := range outcome.ToolRequests {
      result := as.registry.Dispatch(toolCtx, userID, req.Name, req.Arguments)
      payload, err := json.Marshal(result)
      if err != nil {
        payload = []byte(`{"error":"unserializable tool result"}`)
      }
      transcript = append(transcript, ChatEntry{
        Role:       types.RoleTool,
        Content:    string(payload),
        ToolCallID: req.CallID,
      })
      var parsedArgs map[string]interface{}
      _ = json.Unmarshal([]byte(req.Arguments), &parsedArgs)
      callLog = append(callLog, types.ToolCallRecord{
        Tool:      req.Name,
        Arguments: parsedArgs,
        Result:    result,
      })
    }
  }

  as.log.Warn("turn exceeded round bound", "maxRounds", as.maxRounds)
  return "", nil, apperr.Newf(apperr.CodeLoopBoundExceeded, "model kept requesting tools after %d rounds", as.maxRounds)
}
