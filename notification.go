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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/notification"
	"github.com/blnkfinance/tradedesk/internal/request"
	"github.com/blnkfinance/tradedesk/model"
)

// Notifier accepts user notifications. Implementations must not block on
// delivery; a returned error is logged by the caller and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// LogNotifier only logs notifications.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n model.Notification) error {
	logrus.WithFields(logrus.Fields{
		"user_id": n.UserID,
		"type":    n.Type,
		"title":   n.Title,
	}).Info("notification")
	return nil
}

// QueueNotifier hands notifications to the worker through the task queue.
type QueueNotifier struct {
	queue *Queue
}

func NewQueueNotifier(q *Queue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

func (q *QueueNotifier) Notify(ctx context.Context, n model.Notification) error {
	return q.queue.EnqueueNotification(ctx, n)
}

// NewWebhook is the envelope POSTed to the configured notification webhook.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

func newNotification(userID string, kind model.NotificationType, title, message string, metaData map[string]interface{}, now time.Time) model.Notification {
	return model.Notification{
		NotificationID: model.GenerateUUIDWithSuffix("ntf"),
		UserID:         userID,
		Type:           kind,
		Title:          title,
		Message:        message,
		MetaData:       metaData,
		CreatedAt:      now,
	}
}

// transitionNotifications builds the notices for a committed move. A party
// acting on the trade notifies the other side; moves made by the system or the
// arbiter notify both parties, except a confirmed payment which concerns the
// seller only.
func transitionNotifications(txn *model.Transaction, from model.TransactionStatus, actorID string, now time.Time) []model.Notification {
	var recipients []string
	switch {
	case txn.IsParty(actorID):
		recipients = []string{txn.Counterparty(actorID)}
	case txn.Status == model.StatusPaymentConfirmed:
		recipients = []string{txn.SellerID}
	default:
		recipients = []string{txn.BuyerID, txn.SellerID}
	}

	kind := model.NotificationTransaction
	title := "Transação atualizada"
	message := fmt.Sprintf("A transação %s agora está: %s.", txn.TransactionID, txn.Status.Label())
	switch txn.Status {
	case model.StatusPaymentConfirmed:
		kind = model.NotificationPayment
		title = "Pagamento confirmado"
		message = fmt.Sprintf("O pagamento de %s %s da transação %s foi confirmado. Libere a cripto.", txn.TotalPrice.StringFixed(2), txn.FiatCurrency, txn.TransactionID)
	case model.StatusDisputed:
		kind = model.NotificationDispute
		title = "Disputa aberta"
		message = fmt.Sprintf("Uma disputa foi aberta na transação %s. O escrow permanece bloqueado até a arbitragem.", txn.TransactionID)
	case model.StatusCancelled:
		title = "Transação cancelada"
	case model.StatusCompleted:
		title = "Transação concluída"
	}

	metaData := map[string]interface{}{
		"transactionId":  txn.TransactionID,
		"status":         string(txn.Status),
		"previousStatus": string(from),
	}

	notifications := make([]model.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, newNotification(userID, kind, title, message, metaData, now))
	}
	return notifications
}

// NotificationProcessor is the worker side of QueueNotifier: it stores each
// notification and forwards it to the configured webhook.
type NotificationProcessor struct {
	datasource      database.IDataSource
	webhook         config.WebhookTarget
	maxRetries      int
	initialInterval time.Duration
}

func NewNotificationProcessor(ds database.IDataSource, cnf *config.Configuration) *NotificationProcessor {
	return &NotificationProcessor{
		datasource:      ds,
		webhook:         cnf.Notification.Webhook,
		maxRetries:      cnf.Queue.MaxRetryAttempts,
		initialInterval: 500 * time.Millisecond,
	}
}

// ProcessNotification handles a task from the notification queue. Only a
// failure to store the notification is returned, so that asynq retries it.
func (p *NotificationProcessor) ProcessNotification(ctx context.Context, task *asynq.Task) error {
	var n model.Notification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.datasource.RecordNotification(ctx, &n); err != nil {
		return err
	}

	if p.webhook.Url == "" {
		return nil
	}
	if err := p.deliver(ctx, n); err != nil {
		notification.NotifyError(fmt.Errorf("notification %s webhook delivery failed: %w", n.NotificationID, err))
	}
	return nil
}

func (p *NotificationProcessor) deliver(ctx context.Context, n model.Notification) error {
	operation := func() error {
		payload, err := request.ToJsonReq(NewWebhook{Event: "notification.created", Payload: n})
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhook.Url, payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, value := range p.webhook.Headers {
			req.Header.Set(key, value)
		}

		_, err = request.Call(req, nil)
		if err != nil && !request.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialInterval
	retries := uint64(0)
	if p.maxRetries > 0 {
		retries = uint64(p.maxRetries)
	}

	return backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx), func(err error, wait time.Duration) {
		logrus.WithError(err).WithField("notification_id", n.NotificationID).Warnf("notification webhook failed, retrying in %s", wait)
	})
}
