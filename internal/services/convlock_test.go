package services

import (
  "context"
  "sync"
  "testing"
  "time"

  "github.com/google/uuid"
  "github.com/stretchr/testify/assert"
  "github.com/stretchr/testify/require"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
)

func newLocalLocker(t *testing.T) ConvoLocker {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err)
  return NewLocalConvoLocker(log)
}

func TestLocalLockerAcquireRelease(t *testing.T) {
  locker := newLocalLocker(t)
  convoID := uuid.New()

  release, err := locker.Acquire(context.Background(), convoID)
  require.NoError(t, err)
  release()

  // Reacquire after release must succeed immediately.
  release, err = locker.Acquire(context.Background(), convoID)
  require.NoError(t, err)
  release()
}

func TestLocalLockerContentionTimesOut(t *testing.T) {
  locker := newLocalLocker(t)
  convoID := uuid.New()

  release, err := locker.Acquire(context.Background(), convoID)
  require.NoError(t, err)
  defer release()

  ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
  defer cancel()
  _, err = locker.Acquire(ctx, convoID)
  require.Error(t, err)
  assert.True(t, apperr.IsCode(err, apperr.CodeBusy))
}

func TestLocalLockerIndependentConversations(t *testing.T) {
  locker := newLocalLocker(t)

  releaseA, err := locker.Acquire(context.Background(), uuid.New())
  require.NoError(t, err)
  defer releaseA()

  releaseB, err := locker.Acquire(context.Background(), uuid.New())
  require.NoError(t, err)
  defer releaseB()
}

func TestLocalLockerSerializesTurns(t *testing.T) {
  locker := newLocalLocker(t)
  convoID := uuid.New()

  var mu sync.Mutex
  var order []int

  var wg sync.WaitGroup
  release, err := locker.Acquire(context.Background(), convoID)
  require.NoError(t, err)

  wg.Add(1)
  go func() {
    defer wg.Done()
    release2, err := locker.Acquire(context.Background(), convoID)
    if err != nil {
      return
    }
    mu.Lock()
    order = append(order, 2)
    mu.Unlock()
    release2()
  }()

  time.Sleep(20 * time.Millisecond)
  mu.Lock()
  order = append(order, 1)
  mu.Unlock()
  release()
  wg.Wait()

  assert.Equal(t, []int{1, 2}, order)
}
