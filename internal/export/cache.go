package export

import (
	"context"
	"log/slog"
	"time"

	platformredis "epistats/internal/platform/redis"
)

const cacheKeyPrefix = "export:all:"

// Cache keeps serialized full-export payloads in Redis for a short TTL.
// Cache trouble only ever degrades to recomputing the export, so errors are
// logged and swallowed. A nil Cache (Redis unconfigured) disables caching.
type Cache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) get(ctx context.Context, format Format) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, err := c.client.Get(ctx, cacheKeyPrefix+string(format)).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c *Cache) set(ctx context.Context, format Format, body []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+string(format), body, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "export cache set failed", "error", err)
	}
}

// InvalidateExports drops all cached export payloads. Aggregate mutations
// call this so exports never outlive the TTL after a write.
func (c *Cache) InvalidateExports(ctx context.Context) {
	if c == nil {
		return
	}
	keys := []string{
		cacheKeyPrefix + string(FormatJSON),
		cacheKeyPrefix + string(FormatCSV),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "export cache invalidation failed", "error", err)
	}
}
