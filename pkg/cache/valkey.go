package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/platformbuilds/prognos-core/internal/models"
)

// ValkeyCluster is the caching surface the orchestrator consults before
// invoking a stage. Stage results are keyed by an input fingerprint so
// identical sub-requests (same series slice, same stage config) are
// answered without a remote call. The cache is strictly best-effort:
// every pipeline path must work with the noop implementation.
type ValkeyCluster interface {
	// General caching
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Stage result caching keyed by input fingerprint
	CacheStageResult(ctx context.Context, stage models.StageName, fingerprint string, result interface{}, ttl time.Duration) error
	GetCachedStageResult(ctx context.Context, stage models.StageName, fingerprint string) ([]byte, error)

	HealthCheck(ctx context.Context) error
}

func stageResultKey(stage models.StageName, fingerprint string) string {
	return fmt.Sprintf("stage_result:%s:%s", stage, fingerprint)
}
