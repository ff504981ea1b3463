package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tripxl/service-booking/internal/domain/route"
)

// RouteCache stores provider routes by request key.
type RouteCache interface {
	Get(ctx context.Context, key string) (*route.Route, bool, error)
	Set(ctx context.Context, key string, r *route.Route, ttl time.Duration) error
}

const redisKeyPrefix = "routing:route:"

// RedisRouteCache keeps routes as JSON strings in Redis.
type RedisRouteCache struct {
	client redis.Cmdable
}

// NewRedisRouteCache creates a cache on client.
func NewRedisRouteCache(client redis.Cmdable) *RedisRouteCache {
	return &RedisRouteCache{client: client}
}

func (c *RedisRouteCache) Get(ctx context.Context, key string) (*route.Route, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get route")
	}

	var r route.Route
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, errors.Wrap(err, "decode cached route")
	}
	return &r, true, nil
}

func (c *RedisRouteCache) Set(ctx context.Context, key string, r *route.Route, ttl time.Duration) error {
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode route for cache")
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set route")
	}
	return nil
}

// cacheKey identifies a request by provider, stop coordinates and options.
// Waypoint names do not affect routing and are left out.
func cacheKey(provider string, rc RequestContext) string {
	var b strings.Builder
	b.WriteString(provider)
	for _, s := range rc.Stops {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(s.Location.Lat, 'f', 6, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(s.Location.Lng, 'f', 6, 64))
	}
	b.WriteString("|mode=" + string(rc.Options.Mode))
	b.WriteString("|traffic=" + strconv.FormatBool(rc.Options.Traffic))
	b.WriteString("|optimize=" + strconv.FormatBool(rc.Options.OptimizeOrder))
	for _, a := range rc.Options.Avoid {
		b.WriteString("|avoid=" + string(a))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
