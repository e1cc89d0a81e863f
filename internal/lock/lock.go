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

package redlock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by Lock when another holder owns the key.
var ErrLockHeld = errors.New("lock is already held")

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

type Locker struct {
	client redis.UniversalClient
	key    string
	value  string // only the holder of value may release the lock
}

func NewLocker(client redis.UniversalClient, key, value string) *Locker {
	return &Locker{
		client: client,
		key:    key,
		value:  value,
	}
}

// DeliveryKey derives the lock key for an inbound webhook delivery. Two
// deliveries of the same body from the same provider share a key.
func DeliveryKey(provider string, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("tradedesk:webhook:%s:%s", provider, hex.EncodeToString(sum[:]))
}

func (l *Locker) Key() string {
	return l.key
}

func (l *Locker) Lock(ctx context.Context, timeout time.Duration) error {
	success, err := l.client.SetNX(ctx, l.key, l.value, timeout).Result()
	if err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("%w: %s", ErrLockHeld, l.key)
	}
	return nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

// WaitLock retries Lock with exponential backoff until it succeeds, the wait
// timeout elapses or ctx is done. Redis errors other than a held lock stop the
// wait immediately.
func (l *Locker) WaitLock(ctx context.Context, lockTimeout, waitTimeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = waitTimeout

	err := backoff.Retry(func() error {
		err := l.Lock(ctx, lockTimeout)
		if err == nil || errors.Is(err, ErrLockHeld) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("failed to acquire lock for key %s: %w", l.key, err)
	}
	return nil
}
