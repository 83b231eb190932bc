// Copyright 2025 Tenantry Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ratelimit

import (
	"context"
	"time"

	"github.com/tenantry/tenantry/pkg/cache"
)

const redisKeyPrefix = "tenantry:ratelimit:"

// RedisCounterStore keeps counters in Redis so all instances share one window.
type RedisCounterStore struct {
	client cache.ICache
	window time.Duration
}

// NewRedisCounterStore creates a Redis-backed counter store.
func NewRedisCounterStore(client cache.ICache, window time.Duration) *RedisCounterStore {
	return &RedisCounterStore{client: client, window: window}
}

// Incr increments the counter for key via INCR; the first increment arms the
// window expiry. The window start is derived from the remaining TTL.
func (r *RedisCounterStore) Incr(ctx context.Context, key string) (int64, time.Time, error) {
	rk := redisKeyPrefix + key

	count, err := r.client.Incr(ctx, rk).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		// 首次计数，设置窗口过期
		if err := r.client.Expire(ctx, rk, r.window).Err(); err != nil {
			return count, time.Now(), err
		}
		return count, time.Now(), nil
	}

	ttl, err := r.client.TTL(ctx, rk).Result()
	if err != nil || ttl <= 0 {
		return count, time.Now(), err
	}
	return count, time.Now().Add(ttl - r.window), nil
}
