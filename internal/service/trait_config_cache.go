package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ilfen-assessment/internal/domain"
)

// TraitConfigCache guarda la configuracion de rasgos por variante durante un TTL corto.
// Los errores de cache nunca cortan el flujo: en el peor caso se vuelve a leer la base.
type TraitConfigCache interface {
	Get(variant domain.Variant) ([]domain.Trait, bool)
	Set(variant domain.Variant, traits []domain.Trait)
}

type memoryTraitConfigCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[domain.Variant]cachedTraits
}

type cachedTraits struct {
	traits    []domain.Trait
	expiresAt time.Time
}

func NewMemoryTraitConfigCache(ttl time.Duration) TraitConfigCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &memoryTraitConfigCache{
		ttl:   ttl,
		items: make(map[domain.Variant]cachedTraits),
	}
}

func (c *memoryTraitConfigCache) Get(variant domain.Variant) ([]domain.Trait, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[variant]
	if !ok {
		return nil, false
	}
	if time.Now().UTC().After(item.expiresAt) {
		delete(c.items, variant)
		return nil, false
	}
	return item.traits, true
}

func (c *memoryTraitConfigCache) Set(variant domain.Variant, traits []domain.Trait) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[variant] = cachedTraits{traits: traits, expiresAt: time.Now().UTC().Add(c.ttl)}
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisTraitConfigCache struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

func NewRedisTraitConfigCache(client *redis.Client, ttl time.Duration) TraitConfigCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisTraitConfigCache{
		client: client,
		ttl:    ttl,
		prefix: "test:traits:",
	}
}

func (c *redisTraitConfigCache) Get(variant domain.Variant) ([]domain.Trait, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	payload, err := c.client.Get(ctx, c.prefix+variant.String()).Bytes()
	if err != nil {
		return nil, false
	}
	var traits []domain.Trait
	if err := json.Unmarshal(payload, &traits); err != nil {
		return nil, false
	}
	return traits, true
}

func (c *redisTraitConfigCache) Set(variant domain.Variant, traits []domain.Trait) {
	payload, err := json.Marshal(traits)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.client.Set(ctx, c.prefix+variant.String(), payload, c.ttl).Err()
}
