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

// TaskRepo is the task store the tools and the REST task endpoints
// mutate. Every method is scoped to the supplied user id; a lookup that
// matches a task owned by somebody else reports NotFound rather than
// leaking the row's existence.
type TaskRepo interface {
  Create(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title, description string) (*types.Task, error)
  ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Task, error)
  GetByID(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error)
  SetCompleted(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, completed bool) (*types.Task, error)
  Update(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, title, description *string) (*types.Task, error)
  Delete(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error)
}

type taskRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
  return &taskRepo{
    db:  db,
    log: baseLog.With("repo", "TaskRepo"),
  }
}

func (tr *taskRepo) Create(ctx context.Context, tx *gorm.DB, userID uuid.UUID, title, description string) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  task := &types.Task{
    ID:          uuid.New(),
    UserID:      userID,
    Title:       title,
    Description: description,
  }
  if err := tx.WithContext(ctx).Create(task).Error; err != nil {
    tr.log.Error("failed to create task", "error", err)
    return nil, err
  }
  return task, nil
}

func (tr *taskRepo) ListByStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  q := tx.WithContext(ctx).Where("user_id = ?", userID)
  switch status {
  case types.TaskStatusPending:
    q = q.Where("completed = ?", false)
  case types.TaskStatusCompleted:
    q = q.Where("completed = ?", true)
  case types.TaskStatusAll, "":
  default:
    return nil, apperr.Newf(apperr.CodeValidation, "invalid status filter: %q", status)
  }
  var tasks []*types.Task
  if err := q.Order("created_at ASC").Find(&tasks).Error; err != nil {
    tr.log.Error("failed to list tasks", "error", err)
    return nil, err
  }
  return tasks, nil
}

func (tr *taskRepo) GetByID(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  var task types.Task
  if err := tx.WithContext(ctx).
    Where("id = ? AND user_id = ?", taskID, userID).
    First(&task).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apperr.New(apperr.CodeNotFound, "task not found")
    }
    return nil, err
  }
  return &task, nil
}

func (tr *taskRepo) SetCompleted(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, completed bool) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  task, err := tr.GetByID(ctx, tx, userID, taskID)
  if err != nil {
    return nil, err
  }
  if err := tx.WithContext(ctx).
    Model(task).
    Update("completed", completed).Error; err != nil {
    tr.log.Error("failed to set task completed", "error", err)
    return nil, err
  }
  return task, nil
}

func (tr *taskRepo) Update(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, title, description *string) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  task, err := tr.GetByID(ctx, tx, userID, taskID)
  if err != nil {
    return nil, err
  }
  updates := map[string]interface{}{}
  if title != nil {
    updates["title"] = *title
  }
  if description != nil {
    updates["description"] = *description
  }
  if len(updates) == 0 {
    return task, nil
  }
  if err := tx.WithContext(ctx).
    Model(task).
    Updates(updates).Error; err != nil {
    tr.log.Error("failed to update task", "error", err)
    return nil, err
  }
  return task, nil
}

func (tr *taskRepo) Delete(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error) {
  if tx == nil {
    tx = tr.db
  }
  task, err := tr.GetByID(ctx, tx, userID, taskID)
  if err != nil {
    return nil, err
  }
  if err := tx.WithContext(ctx).Delete(task).Error; err != nil {
    tr.log.Error("failed to delete task", "error", err)
    return nil, err
  }
  return task, nil
}
