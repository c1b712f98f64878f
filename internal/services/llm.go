package services

import (
  "context"

  "github.com/openai/openai-go"
  "github.com/openai/openai-go/option"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/tools"
)

// ChatEntry is one entry of the transcript sent to the model: plain
// system/user/assistant text, an assistant entry that requested tool
// calls, or a tool result answering one of those calls (ToolCallID).
type ChatEntry struct {
  Role       string
  Content    string
  ToolCalls  []ToolRequest
  ToolCallID string
}

// ToolRequest is one tool invocation the model asked for. Arguments is
// the raw JSON exactly as the model produced it; results are correlated
// back by CallID, never by position.
type ToolRequest struct {
  CallID    string
  Name      string
  Arguments string
}

// Outcome is the result of one completion call: either a final reply
// or a batch of tool requests, never both.
type Outcome struct {
  Reply        string
  ToolRequests []ToolRequest
}

func (o Outcome) IsFinal() bool {
  return len(o.ToolRequests) == 0
}

// LLMService is the boundary to the language-model provider. It has no
// side effects of its own; every upstream failure surfaces as a single
// gateway_error so callers treat all of them identically.
type LLMService interface {
  Complete(ctx context.Context, transcript []ChatEntry, specs []tools.Spec) (Outcome, error)
}

type openAIService struct {
  log    *logger.Logger
  client *openai.Client
  model  string
}

func NewOpenAIService(log *logger.Logger, baseURL, apiKey, model string) LLMService {
  serviceLog := log.With("service", "OpenAIService")
  options := []option.RequestOption{}
  if baseURL != "" {
    options = append(options, option.WithBaseURL(baseURL))
  }
  if apiKey != "" {
    options = append(options, option.WithAPIKey(apiKey))
  } else {
    serviceLog.Warn("OPENAI_API_KEY not set; calls might fail or be unauthorized")
  }
  client := openai.NewClient(options...)
  return &openAIService{
    log:    serviceLog,
    client: &client,
    model:  model,
  }
}

func (s *openAIService) Complete(ctx context.Context, transcript []ChatEntry, specs []tools.Spec) (Outcome, error) {
  params := openai.ChatCompletionNewParams{
    Model:    s.model,
    Messages: toMessageParams(transcript),
    Tools:    toToolParams(specs),
  }
  resp, err := s.client.Chat.Completions.New(ctx, params)
  if err != nil {
    s.log.Warn("chat completion call failed", "error", err)
    return Outcome{}, apperr.Wrap(apperr.CodeGatewayError, "language model call failed", err)
  }
  if len(resp.Choices) == 0 {
    return Outcome{}, apperr.New(apperr.CodeGatewayError, "language model returned no choices")
  }
  msg := resp.Choices[0].Message
  if len(msg.ToolCalls) > 0 {
    requests := make([]ToolRequest, 0, len(msg.ToolCalls))
    for _, tc := range msg.ToolCalls {
      requests = append(requests, ToolRequest{
        CallID:    tc.ID,
        Name:      tc.Function.Name,
        Arguments: tc.Function.Arguments,
      })
    }
    return Outcome{Reply: msg.Content, ToolRequests: requests}, nil
  }
  if msg.Content == "" {
    return Outcome{}, apperr.New(apperr.CodeGatewayError, "language model returned neither content nor tool calls")
  }
  return Outcome{Reply: msg.Content}, nil
}

func toMessageParams(transcript []ChatEntry) []openai.ChatCompletionMessageParamUnion {
  messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript))
  for _, entry := range transcript {
    switch {
    case entry.Role == "system":
      messages = append(messages, openai.SystemMessage(entry.Content))
    case entry.Role == "user":
      messages = append(messages, openai.UserMessage(entry.Content))
    case entry.Role == "tool":
      messages = append(messages, openai.ToolMessage(entry.Content, entry.ToolCallID))
    case len(entry.ToolCalls) > 0:
      calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(entry.ToolCalls))
      for _, tc := range entry.ToolCalls {
        calls = append(calls, openai.ChatCompletionMessageToolCallParam{
          ID: tc.CallID,
          Function: openai.ChatCompletionMessageToolCallFunctionParam{
            Name:      tc.Name,
            Arguments: tc.Arguments,
          },
        })
      }
      assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
      if entry.Content != "" {
        assistant.Content.OfString = openai.String(entry.Content)
      }
      messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
    default:
      messages = append(messages, openai.AssistantMessage(entry.Content))
    }
  }
  return messages
}

func toToolParams(specs []tools.Spec) []openai.ChatCompletionToolParam {
  params := make([]openai.ChatCompletionToolParam, 0, len(specs))
  for _, spec := range specs {
    properties := map[string]interface{}{}
    required := []string{}
    for name, p := range spec.Parameters {
      prop := map[string]interface{}{
        "type":        p.Type,
        "description": p.Description,
      }
      if len(p.Enum) > 0 {
        prop["enum"] = p.Enum
      }
      properties[name] = prop
      if p.Required {
        required = append(required, name)
      }
    }
    params = append(params, openai.ChatCompletionToolParam{
      Function: openai.FunctionDefinitionParam{
        Name:        spec.Name,
        Description: openai.String(spec.Description),
        Parameters: openai.FunctionParameters{
          "type":       "object",
          "properties": properties,
          "required":   required,
        },
      },
    })
  }
  return params
}
