/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// Cache stores derived read models. Entries are never authoritative; callers
// delete them after every committed write that could change them.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get decodes the entry into data and reports whether it was present.
	Get(ctx context.Context, key string, data interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RedisCache keeps JSON-encoded entries in Redis only. There is no in-process
// tier, so an invalidation issued by one instance is seen by every other one.
type RedisCache struct {
	cache *cache.Cache
}

func NewCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{cache: cache.New(&cache.Options{
		Redis:     client,
		Marshal:   json.Marshal,
		Unmarshal: json.Unmarshal,
	})}
}

func (r *RedisCache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	return r.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: data,
		TTL:   ttl,
	})
}

func (r *RedisCache) Get(ctx context.Context, key string, data interface{}) (bool, error) {
	err := r.cache.Get(ctx, key, data)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	err := r.cache.Delete(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
