package tools

import (
  "context"
  "fmt"

  "github.com/google/uuid"

  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/repos"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

// NewTaskRegistry builds the registry of task-management tools over the
// task store. Ownership is enforced here: handlers only ever receive
// the authenticated user's id, so a hallucinated foreign id in the
// arguments has nothing to attach to.
func NewTaskRegistry(taskRepo repos.TaskRepo, baseLog *logger.Logger) *Registry {
  r := NewRegistry(baseLog)

  r.Register(Spec{
    Name:        "add_task",
    Description: "Create a new task for the user",
    Parameters: map[string]Param{
      "title":       {Type: "string", Description: "Task title", Required: true},
      "description": {Type: "string", Description: "Task description (optional)"},
    },
  }, func(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
    title, _ := args["title"].(string)
    if title == "" {
      return nil, fmt.Errorf("title must not be empty")
    }
    description, _ := args["description"].(string)
    task, err := taskRepo.Create(ctx, nil, userID, title, description)
    if err != nil {
      return nil, err
    }
    return map[string]interface{}{
      "task_id": task.ID.String(),
      "status":  "created",
      "title":   task.Title,
    }, nil
  })

  r.Register(Spec{
    Name:        "list_tasks",
    Description: "Retrieve tasks from the list",
    Parameters: map[string]Param{
      "status": {
        Type:        "string",
        Description: "Filter by task status",
        Enum:        []string{types.TaskStatusAll, types.TaskStatusPending, types.TaskStatusCompleted},
      },
    },
  }, func(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
    status, _ := args["status"].(string)
    if status == "" {
      status = types.TaskStatusAll
    }
    taskList, err := taskRepo.ListByStatus(ctx, nil, userID, status)
    if err != nil {
      return nil, err
    }
    rows := make([]map[string]interface{}, 0, len(taskList))
    for _, task := range taskList {
      rows = append(rows, map[string]interface{}{
        "id":          task.ID.String(),
        "title":       task.Title,
        "description": task.Description,
        "completed":   task.Completed,
        "created_at":  task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
      })
    }
    return map[string]interface{}{
      "tasks": rows,
      "count": len(rows),
    }, nil
  })

  r.Register(Spec{
    Name:        "complete_task",
    Description: "Mark a task as complete",
    Parameters: map[string]Param{
      "task_id": {Type: "string", Description: "Task ID to complete", Required: true},
    },
  }, func(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
    taskID, err := parseTaskID(args)
    if err != nil {
      return nil, err
    }
    task, err := taskRepo.SetCompleted(ctx, nil, userID, taskID, true)
    if err != nil {
      return nil, err
    }
    return map[string]interface{}{
      "task_id": task.ID.String(),
      "status":  "completed",
      "title":   task.Title,
    }, nil
  })

  r.Register(Spec{
    Name:        "delete_task",
    Description: "Remove a task from the list",
    Parameters: map[string]Param{
      "task_id": {Type: "string", Description: "Task ID to delete", Required: true},
    },
  }, func(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
    taskID, err := parseTaskID(args)
    if err != nil {
      return nil, err
    }
    task, err := taskRepo.Delete(ctx, nil, userID, taskID)
    if err != nil {
      return nil, err
    }
    return map[string]interface{}{
      "task_id": task.ID.String(),
      "status":  "deleted",
      "title":   task.Title,
    }, nil
  })

  r.Register(Spec{
    Name:        "update_task",
    Description: "Modify task title or description",
    Parameters: map[string]Param{
      "task_id":     {Type: "string", Description: "Task ID to update", Required: true},
      "title":       {Type: "string", Description: "New task title (optional)"},
      "description": {Type: "string", Description: "New task description (optional)"},
    },
  }, func(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
    taskID, err := parseTaskID(args)
    if err != nil {
      return nil, err
    }
    var title, description *string
    if v, ok := args["title"].(string); ok {
      title = &v
    }
    if v, ok := args["description"].(string); ok {
      description = &v
    }
    task, err := taskRepo.Update(ctx, nil, userID, taskID, title, description)
    if err != nil {
      return nil, err
    }
    return map[string]interface{}{
      "task_id": task.ID.String(),
      "status":  "updated",
      "title":   task.Title,
    }, nil
  })

  return r
}

func parseTaskID(args map[string]interface{}) (uuid.UUID, error) {
  raw, _ := args["task_id"].(string)
  taskID, err := uuid.Parse(raw)
  if err != nil {
    return uuid.Nil, fmt.Errorf("task_id is not a valid task id: %q", raw)
  }
  return taskID, nil
}
