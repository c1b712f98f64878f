package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/taskchat-org/taskchat-backend/internal/repos"
  "github.com/taskchat-org/taskchat-backend/internal/requestdata"
  "github.com/taskchat-org/taskchat-backend/internal/types"
)

// TaskHandler exposes the task store over plain REST so the list can
// be managed without going through the assistant.
type TaskHandler struct {
  taskRepo repos.TaskRepo
}

func NewTaskHandler(taskRepo repos.TaskRepo) *TaskHandler {
  return &TaskHandler{taskRepo: taskRepo}
}

func (th *TaskHandler) ListTasks(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  status := c.DefaultQuery("status", types.TaskStatusAll)
  tasks, err := th.taskRepo.ListByStatus(c.Request.Context(), nil, rd.UserID, status)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (th *TaskHandler) CreateTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  var req struct {
    Title       string `json:"title"`
    Description string `json:"description,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
    c.JSON(http.StatusBadRequest, gin.H{"error": "a task title is required"})
    return
  }
  task, err := th.taskRepo.Create(c.Request.Context(), nil, rd.UserID, req.Title, req.Description)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"task": task})
}

func (th *TaskHandler) UpdateTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  taskID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
    return
  }
  var req struct {
    Title       *string `json:"title,omitempty"`
    Description *string `json:"description,omitempty"`
    Completed   *bool   `json:"completed,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  ctx := c.Request.Context()
  task, err := th.taskRepo.Update(ctx, nil, rd.UserID, taskID, req.Title, req.Description)
  if err != nil {
    respondError(c, err)
    return
  }
  if req.Completed != nil {
    task, err = th.taskRepo.SetCompleted(ctx, nil, rd.UserID, taskID, *req.Completed)
    if err != nil {
      respondError(c, err)
      return
    }
  }
  c.JSON(http.StatusOK, gin.H{"task": task})
}

func (th *TaskHandler) DeleteTask(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  taskID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
    return
  }
  task, err := th.taskRepo.Delete(c.Request.Context(), nil, rd.UserID, taskID)
  if err != nil {
    respondError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "task":    task,
  })
}
