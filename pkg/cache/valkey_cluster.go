package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/platformbuilds/prognos-core/internal/models"
	"github.com/platformbuilds/prognos-core/internal/monitoring"
	"github.com/platformbuilds/prognos-core/pkg/logger"
)

type valkeyClusterImpl struct {
	client *redis.ClusterClient
	logger logger.Logger
	ttl    time.Duration
}

func NewValkeyCluster(nodes []string, password string, defaultTTL time.Duration) (ValkeyCluster, error) {
	client := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:        nodes,
		Password:     password,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test connection to Valkey cluster
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey cluster: %w", err)
	}

	return &valkeyClusterImpl{
		client: client,
		logger: logger.New("info"),
		ttl:    defaultTTL,
	}, nil
}

func (v *valkeyClusterImpl) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		monitoring.RecordCacheOperation("get", "error")
		return nil, err
	}
	monitoring.RecordCacheOperation("get", "hit")
	return b, nil
}

func (v *valkeyClusterImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = v.ttl
	}
	data, err := marshalCacheValue(value)
	if err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return fmt.Errorf("marshal value for key %s: %w", key, err)
	}
	if err := v.client.Set(ctx, key, data, ttl).Err(); err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (v *valkeyClusterImpl) Delete(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, key).Err(); err != nil {
		monitoring.RecordCacheOperation("delete", "error")
		return err
	}
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

func (v *valkeyClusterImpl) CacheStageResult(ctx context.Context, stage models.StageName, fingerprint string, result interface{}, ttl time.Duration) error {
	return v.Set(ctx, stageResultKey(stage, fingerprint), result, ttl)
}

func (v *valkeyClusterImpl) GetCachedStageResult(ctx context.Context, stage models.StageName, fingerprint string) ([]byte, error) {
	return v.Get(ctx, stageResultKey(stage, fingerprint))
}

// HealthCheck pings the Valkey cluster.
func (v *valkeyClusterImpl) HealthCheck(ctx context.Context) error {
	if ctx == nil {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = c
	}
	return v.client.Ping(ctx).Err()
}
