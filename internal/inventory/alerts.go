package inventory

import (
	"context"
	"sort"

	"github.com/ariefcatur/retail-backoffice/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// AlertSet is the Redis set of product ids at or below the low-stock threshold.
type AlertSet struct {
	Redis redis.Cmdable
}

func (a *AlertSet) Flag(ctx context.Context, productID string) error {
	return a.Redis.SAdd(ctx, redisx.KeyLowStock, productID).Err()
}

func (a *AlertSet) Clear(ctx context.Context, productID string) error {
	return a.Redis.SRem(ctx, redisx.KeyLowStock, productID).Err()
}

func (a *AlertSet) Members(ctx context.Context) ([]string, error) {
	ids, err := a.Redis.SMembers(ctx, redisx.KeyLowStock).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
