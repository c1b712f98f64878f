package types

import (
  "github.com/google/uuid"
)

type ChatRequest struct {
  ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
  Message        string     `json:"message"`
}

// ToolCallRecord is one entry of the turn's tool-call log: what the
// model asked for and what came back, in the order it was requested.
type ToolCallRecord struct {
  Tool      string                 `json:"tool"`
  Arguments map[string]interface{} `json:"arguments"`
  Result    map[string]interface{} `json:"result"`
}

type ChatResponse struct {
  ConversationID uuid.UUID        `json:"conversation_id"`
  Response       string           `json:"response"`
  ToolCalls      []ToolCallRecord `json:"tool_calls"`
}
