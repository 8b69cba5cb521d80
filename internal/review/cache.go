package review

import (
	"context"
	"log/slog"

	"sponsorhub/internal/platform/redis"
	id "sponsorhub/pkg/domain"
)

// RedisCache invalidates list-view cache keys after mutations. Keys follow
// the pattern views:{tenant}:{entityType}:* written by the dashboard read
// layer. Invalidation is best-effort: a stale list view heals on its own
// TTL, so failures are only logged.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) InvalidateEntityLists(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) {
	pattern := "views:" + tenantID.String() + ":" + string(entityType) + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("cache invalidation scan failed", "pattern", pattern, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("cache invalidation delete failed", "pattern", pattern, "error", err)
	}
}

// noopCache is the default when Redis is not configured.
type noopCache struct{}

func (noopCache) InvalidateEntityLists(context.Context, id.TenantID, id.EntityType) {}
