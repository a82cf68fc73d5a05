package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

// noopValkeyCache provides an in-memory, process-local fallback that satisfies
// ValkeyCluster when the external cache is unavailable. It is best-effort and
// intended for development and degraded operation; data is not shared across
// replicas and is lost on restart.
type noopValkeyCache struct {
	m      map[string][]byte
	mu     sync.RWMutex
	logger logger.Logger
}

func NewNoopValkeyCache(log logger.Logger) ValkeyCluster {
	log.Warn("Valkey cache unavailable; using in-memory fallback (noop)")
	return &noopValkeyCache{m: make(map[string][]byte), logger: log}
}

func (n *noopValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.m[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return b, nil
}

func (n *noopValkeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := marshalCacheValue(value)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.m[key] = b
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.m, key)
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) CacheStageResult(ctx context.Context, stage models.StageName, fingerprint string, result interface{}, ttl time.Duration) error {
	return n.Set(ctx, stageResultKey(stage, fingerprint), result, ttl)
}

func (n *noopValkeyCache) GetCachedStageResult(ctx context.Context, stage models.StageName, fingerprint string) ([]byte, error) {
	return n.Get(ctx, stageResultKey(stage, fingerprint))
}

func (n *noopValkeyCache) HealthCheck(ctx context.Context) error { return nil }

func marshalCacheValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
