package tools

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"

  "github.com/google/uuid"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
)

// Param describes one argument of a tool, in the shape the model-side
// function schema is generated from.
type Param struct {
  Type        string
  Description string
  Required    bool
  Enum        []string
}

// Spec is a tool catalog entry: what gets advertised to the model.
type Spec struct {
  Name        string
  Description string
  Parameters  map[string]Param
}

// Handler runs one validated tool call on behalf of userID and returns
// the result payload that is serialized back into the transcript.
type Handler func(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error)

type entry struct {
  spec    Spec
  handler Handler
}

// Registry holds the callable tools and dispatches model-requested
// calls to them. Dispatch never returns a Go error for a bad call: the
// failure is serialized as an error payload so the model can read it
// and self-correct.
type Registry struct {
  log     *logger.Logger
  order   []string
  entries map[string]entry
}

func NewRegistry(baseLog *logger.Logger) *Registry {
  return &Registry{
    log:     baseLog.With("component", "ToolRegistry"),
    entries: map[string]entry{},
  }
}

func (r *Registry) Register(spec Spec, handler Handler) {
  if _, exists := r.entries[spec.Name]; !exists {
    r.order = append(r.order, spec.Name)
  }
  r.entries[spec.Name] = entry{spec: spec, handler: handler}
}

// Specs returns the catalog in registration order. The order is stable
// so the model sees an identical tool list on every round.
func (r *Registry) Specs() []Spec {
  specs := make([]Spec, 0, len(r.order))
  for _, name := range r.order {
    specs = append(specs, r.entries[name].spec)
  }
  return specs
}

// Dispatch parses and validates rawArgs against the named tool's spec,
// runs the handler, and returns the result payload. The returned
// mapping is always usable as a tool result; failures come back as
// {"error": ...}.
func (r *Registry) Dispatch(ctx context.Context, userID uuid.UUID, name, rawArgs string) map[string]interface{} {
  ent, ok := r.entries[name]
  if !ok {
    r.log.Warn("model requested unknown tool", "tool", name)
    return errPayload(fmt.Sprintf("unknown tool: %s", name))
  }
  args := map[string]interface{}{}
  if rawArgs != "" {
    if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
      return errPayload(fmt.Sprintf("invalid arguments for %s: not a JSON object", name))
    }
  }
  if msg := validateArgs(ent.spec, args); msg != "" {
    return errPayload(msg)
  }
  result, err := ent.handler(ctx, userID, args)
  if err != nil {
    r.log.Warn("tool call failed", "tool", name, "error", err)
    msg := err.Error()
    var ae *apperr.Error
    if errors.As(err, &ae) {
      msg = ae.Message
    }
    return errPayload(msg)
  }
  return result
}

func errPayload(msg string) map[string]interface{} {
  return map[string]interface{}{"error": msg}
}

func validateArgs(spec Spec, args map[string]interface{}) string {
  for name, p := range spec.Parameters {
    val, present := args[name]
    if !present {
      if p.Required {
        return fmt.Sprintf("missing required argument: %s", name)
      }
      continue
    }
    switch p.Type {
    case "string":
      s, ok := val.(string)
      if !ok {
        return fmt.Sprintf("argument %s must be a string", name)
      }
      if len(p.Enum) > 0 && !contains(p.Enum, s) {
        return fmt.Sprintf("argument %s must be one of %v", name, p.Enum)
      }
    case "boolean":
      if _, ok := val.(bool); !ok {
        return fmt.Sprintf("argument %s must be a boolean", name)
      }
    case "integer":
      // encoding/json decodes all numbers as float64.
      f, ok := val.(float64)
      if !ok || f != float64(int64(f)) {
        return fmt.Sprintf("argument %s must be an integer", name)
      }
    }
  }
  for name := range args {
    if _, known := spec.Parameters[name]; !known {
      return fmt.Sprintf("unknown argument: %s", name)
    }
  }
  return ""
}

func contains(values []string, v string) bool {
  for _, candidate := range values {
    if candidate == v {
      return true
    }
  }
  return false
}
