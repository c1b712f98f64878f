package tools

import (
  "context"
  "testing"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

// fakeTaskRepo is an in-memory TaskRepo so the registry can be
// exercised without a database.
type fakeTaskRepo struct {
  tasks map[uuid.UUID]*types.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
  return &fakeTaskRepo{tasks: map[uuid.UUID]*types.Task{}}
}

func (f *fakeTaskRepo) Create(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title, description string) (*types.Task, error) {
  task := &types.Task{ID: uuid.New(), UserID: userID, Title: title, Description: description}
  f.tasks[task.ID] = task
  return task, nil
}

func (f *fakeTaskRepo) ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Task, error) {
  var out []*types.Task
  for _, task := range f.tasks {
    if task.UserID != userID {
      continue
    }
    if status == types.TaskStatusPending && task.Completed {
      continue
    }
    if status == types.TaskStatusCompleted && !task.Completed {
      continue
    }
    out = append(out, task)
  }
  return out, nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error) {
  task, ok := f.tasks[taskID]
  if !ok || task.UserID != userID {
    return nil, apperr.New(apperr.CodeNotFound, "task not found")
  }
  return task, nil
}

func (f *fakeTaskRepo) SetCompleted(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, completed bool) (*types.Task, error) {
  task, err := f.GetByID(ctx, tx, userID, taskID)
  if err != nil {
    return nil, err
  }
  task.Completed = completed
  return task, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, title, description *string) (*types.Task, error) {
  task, err := f.GetByID(ctx, tx, userID, taskID)
  if err != nil {
    return nil, err
  }
  if title != nil {
    task.Title = *title
  }
  if description != nil {
    task.Description = *description
  }
  return task, nil
}

func (f *fakeTaskRepo) Delete(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error) {
  task, err := f.GetByID(ctx, tx, userID, taskID)
  if err != nil {
    return nil, err
  }
  delete(f.tasks, taskID)
  return task, nil
}

func testRegistry(t *testing.T) (*Registry, *fakeTaskRepo) {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err)
  repo := newFakeTaskRepo()
  return NewTaskRegistry(repo, log), repo
}

func TestSpecsStableOrder(t *testing.T) {
  registry, _ := testRegistry(t)
  want := []string{"add_task", "list_tasks", "complete_task", "delete_task", "update_task"}
  for i := 0; i < 3; i++ {
    specs := registry.Specs()
    require.Len(t, specs, len(want))
    for j, spec := range specs {
      assert.Equal(t, want[j], spec.Name)
    }
  }
}

func TestDispatchUnknownTool(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "drop_database", `{}`)
  assert.Contains(t, result["error"], "unknown tool")
}

func TestDispatchMissingRequiredArgument(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "add_task", `{}`)
  assert.Contains(t, result["error"], "missing required argument: title")
}

func TestDispatchInvalidJSONArguments(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "add_task", `not json`)
  assert.Contains(t, result["error"], "not a JSON object")
}

func TestDispatchEnumViolation(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "list_tasks", `{"status":"urgent"}`)
  assert.Contains(t, result["error"], "must be one of")
}

func TestDispatchWrongArgumentType(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "add_task", `{"title":42}`)
  assert.Contains(t, result["error"], "must be a string")
}

func TestDispatchUnknownArgument(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "add_task", `{"title":"x","priority":"high"}`)
  assert.Contains(t, result["error"], "unknown argument: priority")
}

func TestAddAndListTasks(t *testing.T) {
  registry, _ := testRegistry(t)
  userID := uuid.New()

  created := registry.Dispatch(context.Background(), userID, "add_task", `{"title":"buy milk"}`)
  assert.Equal(t, "created", created["status"])
  assert.Equal(t, "buy milk", created["title"])
  require.NotEmpty(t, created["task_id"])

  listed := registry.Dispatch(context.Background(), userID, "list_tasks", `{"status":"all"}`)
  assert.Equal(t, 1, listed["count"])
  rows, ok := listed["tasks"].([]map[string]interface{})
  require.True(t, ok)
  assert.Equal(t, "buy milk", rows[0]["title"])
}

func TestCompleteUpdateDeleteFlow(t *testing.T) {
  registry, _ := testRegistry(t)
  userID := uuid.New()

  created := registry.Dispatch(context.Background(), userID, "add_task", `{"title":"buy milk"}`)
  taskID := created["task_id"].(string)

  completed := registry.Dispatch(context.Background(), userID, "complete_task", `{"task_id":"`+taskID+`"}`)
  assert.Equal(t, "completed", completed["status"])

  updated := registry.Dispatch(context.Background(), userID, "update_task", `{"task_id":"`+taskID+`","title":"buy oat milk"}`)
  assert.Equal(t, "updated", updated["status"])
  assert.Equal(t, "buy oat milk", updated["title"])

  deleted := registry.Dispatch(context.Background(), userID, "delete_task", `{"task_id":"`+taskID+`"}`)
  assert.Equal(t, "deleted", deleted["status"])

  listed := registry.Dispatch(context.Background(), userID, "list_tasks", `{}`)
  assert.Equal(t, 0, listed["count"])
}

func TestDispatchMissingTaskReturnsErrorPayload(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "complete_task", `{"task_id":"`+uuid.NewString()+`"}`)
  assert.Equal(t, "task not found", result["error"])
}

func TestDispatchScopesToUser(t *testing.T) {
  registry, repo := testRegistry(t)
  owner := uuid.New()
  intruder := uuid.New()

  task, err := repo.Create(context.Background(), nil, owner, "private", "")
  require.NoError(t, err)

  result := registry.Dispatch(context.Background(), intruder, "delete_task", `{"task_id":"`+task.ID.String()+`"}`)
  assert.Equal(t, "task not found", result["error"])
  assert.Contains(t, repo.tasks, task.ID)
}

func TestDispatchRejectsMalformedTaskID(t *testing.T) {
  registry, _ := testRegistry(t)
  result := registry.Dispatch(context.Background(), uuid.New(), "delete_task", `{"task_id":"42"}`)
  assert.Contains(t, result["error"], "not a valid task id")
}
