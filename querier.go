package redis

import (
	"context"
	"time"

	"github.com/pior/redis/resp"
)

// Querier is the command catalog. Read operations report a missing key, or a
// key holding another type, as absent (false) rather than as an error.
type Querier interface {
	Get(ctx context.Context, key string) (Value, error)
	GetString(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	LPush(ctx context.Context, key string, values ...string) error
	LPop(ctx context.Context, key string, count int) ([]string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Type(ctx context.Context, key string) (KeyType, error)
	Do(ctx context.Context, args ...string) (resp.Reply, error)
}

var _ Querier = (*Client)(nil)
