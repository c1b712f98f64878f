package services

import (
  "context"
  "sync"
  "time"

  "github.com/google/uuid"
  "github.com/redis/go-redis/v9"

  "github.com/taskchat-org/taskchat-backend/internal/apperr"
  "github.com/taskchat-org/taskchat-backend/internal/logger"
)

// ConvoLocker serializes chat turns per conversation: a turn holds the
// lock from before the user message is appended until the assistant
// reply is appended or the turn fails. Turns on different conversations
// never contend. A caller that cannot acquire within the wait bound
// gets busy instead of blocking indefinitely.
type ConvoLocker interface {
  Acquire(ctx context.Context, conversationID uuid.UUID) (release func(), err error)
}

const (
  lockWaitBound  = 3 * time.Second
  lockRetryDelay = 50 * time.Millisecond
)

// releaseScript deletes the lock only if this process still owns it,
// so a lease that expired and was re-acquired elsewhere is not clobbered.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisConvoLocker struct {
  log      *logger.Logger
  client   *redis.Client
  leaseTTL time.Duration
}

func NewRedisConvoLocker(log *logger.Logger, address, password string, leaseTTL time.Duration) (ConvoLocker, error) {
  client := redis.NewClient(&redis.Options{
    Addr:     address,
    Password: password,
    DB:       0,
  })
  ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
  defer cancel()
  if err := client.Ping(ctx).Err(); err != nil {
    return nil, err
  }
  return &redisConvoLocker{
    log:      log.With("service", "RedisConvoLocker"),
    client:   client,
    leaseTTL: leaseTTL,
  }, nil
}

func (rl *redisConvoLocker) Acquire(ctx context.Context, conversationID uuid.UUID) (func(), error) {
  key := "taskchat:convlock:" + conversationID.String()
  token := uuid.NewString()
  deadline := time.Now().Add(lockWaitBound)
  for {
    ok, err := rl.client.SetNX(ctx, key, token, rl.leaseTTL).Result()
    if err != nil {
      rl.log.Warn("lock acquire failed", "conversationID", conversationID, "error", err)
      return nil, apperr.Wrap(apperr.CodeBusy, "conversation lock unavailable", err)
    }
    if ok {
      release := func() {
        relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
        defer cancel()
        if err := releaseScript.Run(relCtx, rl.client, []string{key}, token).Err(); err != nil {
          rl.log.Warn("lock release failed", "conversationID", conversationID, "error", err)
        }
      }
      return release, nil
    }
    if time.Now().After(deadline) {
      return nil, apperr.New(apperr.CodeBusy, "conversation is busy with another turn")
    }
    select {
    case <-ctx.Done():
      return nil, apperr.Wrap(apperr.CodeBusy, "request cancelled while waiting for conversation lock", ctx.Err())
    case <-time.After(lockRetryDelay):
    }
  }
}

// localConvoLocker is the single-process fallback used when Redis is
// not configured. Same contract, per-key semaphores in memory.
type localConvoLocker struct {
  log   *logger.Logger
  mu    sync.Mutex
  slots map[uuid.UUID]chan struct{}
}

func NewLocalConvoLocker(log *logger.Logger) ConvoLocker {
  return &localConvoLocker{
    log:   log.With("service", "LocalConvoLocker"),
    slots: map[uuid.UUID]chan struct{}{},
  }
}

func (ll *localConvoLocker) slot(conversationID uuid.UUID) chan struct{} {
  ll.mu.Lock()
  defer ll.mu.Unlock()
  slot, ok := ll.slots[conversationID]
  if !ok {
    slot = make(chan struct{}, 1)
    ll.slots[conversationID] = slot
  }
  return slot
}

func (ll *localConvoLocker) Acquire(ctx context.Context, conversationID uuid.UUID) (func(), error) {
  slot := ll.slot(conversationID)
  select {
  case slot <- struct{}{}:
    return func() { <-slot }, nil
  case <-ctx.Done():
    return nil, apperr.Wrap(apperr.CodeBusy, "request cancelled while waiting for conversation lock", ctx.Err())
  case <-time.After(lockWaitBound):
    return nil, apperr.New(apperr.CodeBusy, "conversation is busy with another turn")
  }
}
