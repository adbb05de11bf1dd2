package propertyfinder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/yourorg/listing-bridge/internal/redisx"
)

// Token is a bearer credential with its computed expiry. ExpiresAt already
// has the safety buffer applied, so a token is usable while now < ExpiresAt.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t Token) valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenCache holds at most one token across requests. Concurrent refreshes
// may race; last write wins and a few redundant auth calls are acceptable.
type TokenCache interface {
	Get(ctx context.Context) (Token, bool)
	Put(ctx context.Context, t Token)
}

// MemoryTokenCache is the default single-slot in-process cache.
type MemoryTokenCache struct {
	mu  sync.Mutex
	tok Token
}

func NewMemoryTokenCache() *MemoryTokenCache { return &MemoryTokenCache{} }

func (c *MemoryTokenCache) Get(_ context.Context) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.Value == "" {
		return Token{}, false
	}
	return c.tok, true
}

func (c *MemoryTokenCache) Put(_ context.Context, t Token) {
	c.mu.Lock()
	c.tok = t
	c.mu.Unlock()
}

// RedisTokenCache shares the token between instances. The Redis TTL tracks
// the token expiry so a stale value ages out on its own.
type RedisTokenCache struct {
	Redis *redisx.Client
	Key   string
}

func NewRedisTokenCache(rc *redisx.Client) *RedisTokenCache {
	return &RedisTokenCache{Redis: rc, Key: "pf:token"}
}

func (c *RedisTokenCache) Get(ctx context.Context) (Token, bool) {
	val, err := c.Redis.Get(ctx, c.Key)
	if err != nil || val == "" {
		return Token{}, false
	}
	var t Token
	if err := json.Unmarshal([]byte(val), &t); err != nil {
		return Token{}, false
	}
	return t, true
}

func (c *RedisTokenCache) Put(ctx context.Context, t Token) {
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = c.Redis.Set(ctx, c.Key, string(b), ttl)
}
