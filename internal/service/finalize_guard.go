package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FinalizeGuard evita que dos requests finalicen la misma sesion al mismo tiempo.
// Acquire devuelve ok=false si otra request tiene el lock; release es seguro de llamar siempre.
type FinalizeGuard interface {
	Acquire(sessionID string) (release func(), ok bool)
}

const redisFinalizeLockScript = `
if redis.call("SET", KEYS[1], ARGV[1], "NX", "EX", ARGV[2]) then
  return 1
end
return 0
`

const redisFinalizeUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisFinalizeGuard struct {
	client redisEvaler
	ttl    time.Duration
	prefix string
}

func NewRedisFinalizeGuard(client *redis.Client, ttl time.Duration) FinalizeGuard {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisFinalizeGuard{
		client: client,
		ttl:    ttl,
		prefix: "test:finalize:",
	}
}

func noopRelease() {}

func (g *redisFinalizeGuard) Acquire(sessionID string) (func(), bool) {
	if g == nil || g.client == nil {
		return noopRelease, true
	}
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return noopRelease, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := g.prefix + key
	token := uuid.NewString()
	seconds := int(g.ttl.Seconds())
	if seconds <= 0 {
		seconds = 30
	}
	got, err := g.client.Eval(ctx, redisFinalizeLockScript, []string{redisKey}, token, seconds).Int()
	if err != nil {
		// Redis caido: el guard de la base (is_completed) sigue protegiendo.
		return noopRelease, true
	}
	if got != 1 {
		return noopRelease, false
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		_ = g.client.Eval(ctx, redisFinalizeUnlockScript, []string{redisKey}, token).Err()
	}, true
}

type memoryFinalizeGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewMemoryFinalizeGuard() FinalizeGuard {
	return &memoryFinalizeGuard{active: make(map[string]struct{})}
}

func (g *memoryFinalizeGuard) Acquire(sessionID string) (func(), bool) {
	key := strings.TrimSpace(sessionID)
	if key == "" {
		return noopRelease, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return noopRelease, false
	}
	g.active[key] = struct{}{}
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.active, key)
	}, true
}
