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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newTestCache(t *testing.T) *RedisCache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client)
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "txn_1", view{ID: "txn_1", Status: "PENDING"}, time.Minute))

	var got view
	found, err := c.Get(ctx, "txn_1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, view{ID: "txn_1", Status: "PENDING"}, got)
}

func TestGetMiss(t *testing.T) {
	c := newTestCache(t)

	var got view
	found, err := c.Get(context.Background(), "missing", &got)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, got.ID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "txn_1", view{ID: "txn_1"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "txn_1"))
	assert.NoError(t, c.Delete(ctx, "txn_1"))

	var got view
	found, err := c.Get(ctx, "txn_1", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}
