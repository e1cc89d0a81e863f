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

package tradedesk

import (
	"context"
	"embed"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/cache"
	"github.com/blnkfinance/tradedesk/internal/signature"
	"github.com/blnkfinance/tradedesk/model"
)

var tracer = otel.Tracer("tradedesk.engine")

//go:embed sql/*.sql
var SQLFiles embed.FS

// TradeDesk runs the trade lifecycle: state transitions with their escrow
// effects, inbound provider webhooks and the notifications both produce.
type TradeDesk struct {
	datasource database.IDataSource
	config     *config.Configuration
	verifier   signature.Verifier
	notifier   Notifier
	cache      cache.Cache
	redis      redis.UniversalClient
	now        func() time.Time
}

type Option func(*TradeDesk)

// WithVerifier replaces the HMAC-SHA256 webhook signature verifier.
func WithVerifier(v signature.Verifier) Option {
	return func(t *TradeDesk) { t.verifier = v }
}

// WithNotifier sets the sink for user notifications. The default only logs.
func WithNotifier(n Notifier) Option {
	return func(t *TradeDesk) { t.notifier = n }
}

// WithCache enables the transaction read-model cache.
func WithCache(c cache.Cache) Option {
	return func(t *TradeDesk) { t.cache = c }
}

// WithRedis enables the per-delivery webhook lock.
func WithRedis(client redis.UniversalClient) Option {
	return func(t *TradeDesk) { t.redis = client }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *TradeDesk) { t.now = now }
}

// NewTradeDesk builds the engine on top of db using the loaded configuration.
func NewTradeDesk(db database.IDataSource, opts ...Option) (*TradeDesk, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	t := &TradeDesk{
		datasource: db,
		config:     cnf,
		verifier:   signature.HMACVerifier{},
		notifier:   LogNotifier{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func readModelKey(transactionID string) string {
	return "tradedesk:transaction:" + transactionID
}

// afterCommit runs the side effects of a committed unit of work. Failures are
// logged and never reach the caller.
func (t *TradeDesk) afterCommit(ctx context.Context, transactionIDs []string, notifications []model.Notification) {
	if t.cache != nil {
		for _, id := range transactionIDs {
			if err := t.cache.Delete(ctx, readModelKey(id)); err != nil {
				logrus.WithError(err).WithField("transaction_id", id).Warn("failed to invalidate read model")
			}
		}
	}

	for _, n := range notifications {
		if err := t.notifier.Notify(ctx, n); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id": n.UserID,
				"type":    n.Type,
			}).Error("failed to emit notification")
		}
	}
}
