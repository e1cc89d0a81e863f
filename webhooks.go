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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/apierror"
	redlock "github.com/blnkfinance/tradedesk/internal/lock"
	"github.com/blnkfinance/tradedesk/model"
)

const (
	eventInvalidPayload       = "invalid_payload"
	eventRejected             = "rejected"
	eventTransitionRequest    = "transaction.transition"
	minimumDeliveryLockWindow = time.Second
)

// InboundWebhook is one provider callback as received on the wire.
type InboundWebhook struct {
	Provider  string
	Body      []byte
	Signature string
	Timestamp string
}

// effectResult collects what a webhook effect changed, for the work that has
// to wait until the unit of work commits.
type effectResult struct {
	transactions  []string
	notifications []model.Notification
}

func (r *effectResult) touched(transactionID string, notifications ...model.Notification) {
	if transactionID != "" {
		r.transactions = append(r.transactions, transactionID)
	}
	r.notifications = append(r.notifications, notifications...)
}

// webhookPayload is implemented by every provider schema.
type webhookPayload interface {
	validation.Validatable
	eventName() string
	apply(ctx context.Context, t *TradeDesk, tx database.Store, out *effectResult) error
}

// PixWebhook is the body sent by the PIX provider when a payment changes state.
type PixWebhook struct {
	PixKey        string                 `json:"pixKey"`
	Amount        decimal.Decimal        `json:"amount"`
	Status        model.PixPaymentStatus `json:"status"`
	TransactionID string                 `json:"transactionId"`
	PayerID       string                 `json:"payerId,omitempty"`
	PayerName     string                 `json:"payerName,omitempty"`
}

func (p PixWebhook) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PixKey, validation.Required),
		validation.Field(&p.Amount, validation.By(positiveAmount)),
		validation.Field(&p.Status, validation.Required, validation.In(model.PixPending, model.PixCompleted, model.PixFailed)),
		validation.Field(&p.TransactionID, validation.Required),
	)
}

func (p PixWebhook) eventName() string {
	return "pix.payment." + strings.ToLower(string(p.Status))
}

// KycWebhook is the body sent by the KYC provider after a document review.
type KycWebhook struct {
	DocumentID   string                  `json:"documentId"`
	UserID       string                  `json:"userId"`
	DocumentType model.KYCDocumentType   `json:"documentType"`
	Status       model.KYCDocumentStatus `json:"status"`
	ReviewNotes  string                  `json:"reviewNotes,omitempty"`
	ReviewedBy   string                  `json:"reviewedBy,omitempty"`
}

func (k KycWebhook) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.DocumentID, validation.Required),
		validation.Field(&k.UserID, validation.Required),
		validation.Field(&k.DocumentType, validation.Required),
		validation.Field(&k.Status, validation.Required, validation.In(model.KYCDocumentApproved, model.KYCDocumentRejected, model.KYCDocumentPending)),
	)
}

func (k KycWebhook) eventName() string {
	return "kyc.document." + strings.ToLower(string(k.Status))
}

// InternalWebhook lets trusted internal services drive a transition.
type InternalWebhook struct {
	Event         string                  `json:"event"`
	TransactionID string                  `json:"transactionId"`
	TargetStatus  model.TransactionStatus `json:"targetStatus"`
	ActorID       string                  `json:"actorId,omitempty"`
}

func (i InternalWebhook) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Event, validation.Required, validation.In(eventTransitionRequest)),
		validation.Field(&i.TransactionID, validation.Required),
		validation.Field(&i.TargetStatus, validation.Required, validation.By(func(value interface{}) error {
			if s, _ := value.(model.TransactionStatus); !s.Valid() {
				return errors.New("unknown transaction status")
			}
			return nil
		})),
	)
}

func (i InternalWebhook) eventName() string {
	return i.Event
}

// auditOnly is used for providers that have a secret configured but no
// effect; their deliveries are verified and recorded.
type auditOnly struct {
	provider string
}

func (a auditOnly) Validate() error { return nil }

func (a auditOnly) eventName() string { return a.provider + ".received" }

func (a auditOnly) apply(context.Context, *TradeDesk, database.Store, *effectResult) error {
	return nil
}

func positiveAmount(value interface{}) error {
	amount, _ := value.(decimal.Decimal)
	if !amount.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

// decodeStrict decodes a single JSON object and rejects unknown fields and
// trailing data.
func decodeStrict(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

func parseWebhook(provider string, body []byte) (webhookPayload, error) {
	var payload webhookPayload
	switch provider {
	case model.ProviderPix:
		p := &PixWebhook{}
		if err := decodeStrict(body, p); err != nil {
			return nil, apierror.InvalidPayload("malformed pix webhook", err.Error())
		}
		payload = p
	case model.ProviderKYC:
		k := &KycWebhook{}
		if err := decodeStrict(body, k); err != nil {
			return nil, apierror.InvalidPayload("malformed kyc webhook", err.Error())
		}
		payload = k
	case model.ProviderInternal:
		i := &InternalWebhook{}
		if err := decodeStrict(body, i); err != nil {
			return nil, apierror.InvalidPayload("malformed internal webhook", err.Error())
		}
		payload = i
	default:
		if !json.Valid(body) {
			return nil, apierror.InvalidPayload("webhook body is not valid JSON", nil)
		}
		return auditOnly{provider: provider}, nil
	}

	if err := payload.Validate(); err != nil {
		return nil, apierror.InvalidPayload("invalid "+provider+" webhook", err.Error())
	}
	return payload, nil
}

// HandleInbound authenticates a provider callback and applies its effect. The
// effect and the processed audit row commit together; notifications go out
// only after the commit. A redelivered payload is a successful no-op.
func (t *TradeDesk) HandleInbound(ctx context.Context, in InboundWebhook) error {
	ctx, span := tracer.Start(ctx, "HandleInbound")
	defer span.End()

	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = model.ProviderUnknown
	}

	secret, ok := t.config.ProviderSecret(provider)
	if !ok {
		return apierror.Unauthorized("no webhook secret configured for provider " + provider)
	}
	if !t.verifier.Verify(in.Body, in.Signature, secret) {
		return apierror.Unauthorized("invalid webhook signature")
	}
	if err := t.checkFreshness(in.Timestamp); err != nil {
		return err
	}

	payload, err := parseWebhook(provider, in.Body)
	if err != nil {
		t.recordUnprocessed(ctx, provider, eventInvalidPayload, in)
		return err
	}

	unlock := t.lockDelivery(ctx, provider, in.Body)
	defer unlock()

	var out effectResult
	err = t.datasource.WithTx(ctx, func(ctx context.Context, tx database.Store) error {
		out = effectResult{}
		if err := payload.apply(ctx, t, tx, &out); err != nil {
			return err
		}
		return tx.RecordWebhookEvent(ctx, t.webhookEvent(provider, payload.eventName(), in, true))
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"provider": provider,
			"event":    payload.eventName(),
		}).Warn("webhook effect rolled back")
		t.recordUnprocessed(ctx, provider, eventRejected, in)
		return err
	}

	t.afterCommit(ctx, out.transactions, out.notifications)
	return nil
}

func (t *TradeDesk) webhookEvent(provider, event string, in InboundWebhook, processed bool) *model.WebhookEvent {
	var sig *string
	if in.Signature != "" {
		s := in.Signature
		sig = &s
	}
	return &model.WebhookEvent{
		EventID:   model.GenerateUUIDWithSuffix("whe"),
		Provider:  provider,
		Event:     event,
		Payload:   json.RawMessage(in.Body),
		Signature: sig,
		Processed: processed,
		CreatedAt: t.now(),
	}
}

// recordUnprocessed appends an audit row for a delivery whose effect was not
// applied. It runs outside any unit of work and only logs failures.
func (t *TradeDesk) recordUnprocessed(ctx context.Context, provider, event string, in InboundWebhook) {
	if err := t.datasource.RecordWebhookEvent(ctx, t.webhookEvent(provider, event, in, false)); err != nil {
		logrus.WithError(err).WithField("provider", provider).Error("failed to record webhook audit event")
	}
}

// checkFreshness enforces providers.replay_window_sec when it is set. Missing
// or unparseable timestamps are accepted.
func (t *TradeDesk) checkFreshness(header string) error {
	window := time.Duration(t.config.Providers.ReplayWindowSec) * time.Second
	if window <= 0 || strings.TrimSpace(header) == "" {
		return nil
	}

	sent, err := time.Parse(time.RFC3339, strings.TrimSpace(header))
	if err != nil {
		logrus.WithField("timestamp", header).Debug("ignoring unparseable webhook timestamp")
		return nil
	}

	age := t.now().Sub(sent)
	if age > window || age < -window {
		return apierror.Unauthorized(fmt.Sprintf("webhook timestamp outside the %s replay window", window))
	}
	return nil
}

// lockDelivery serialises identical deliveries across instances. The lock is
// best effort: when Redis is unavailable or the wait times out the delivery
// proceeds and the store guards decide.
func (t *TradeDesk) lockDelivery(ctx context.Context, provider string, body []byte) func() {
	if t.redis == nil {
		return func() {}
	}

	ttl := time.Duration(t.config.Providers.LockTimeoutSec) * time.Second
	if ttl < minimumDeliveryLockWindow {
		ttl = minimumDeliveryLockWindow
	}
	locker := redlock.NewLocker(t.redis, redlock.DeliveryKey(provider, body), uuid.NewString())

	if err := locker.WaitLock(ctx, ttl, ttl/2); err != nil {
		logrus.WithError(err).WithField("key", locker.Key()).Warn("proceeding without webhook delivery lock")
		return func() {}
	}

	return func() {
		if err := locker.Unlock(context.Background()); err != nil {
			logrus.WithError(err).WithField("key", locker.Key()).Warn("failed to release webhook delivery lock")
		}
	}
}

// apply matches the oldest PENDING payment for the key and amount. A delivery
// that matches nothing, such as a redelivery of an already applied payload, is
// logged and treated as success. So is a COMPLETED delivery for a trade whose
// payment is already confirmed.
func (p PixWebhook) apply(ctx context.Context, t *TradeDesk, tx database.Store, out *effectResult) error {
	payment, err := tx.FindPendingPixPayment(ctx, p.PixKey, p.Amount)
	if err != nil {
		return err
	}
	if payment == nil {
		logrus.WithFields(logrus.Fields{
			"pix_key": p.PixKey,
			"amount":  p.Amount.String(),
			"status":  p.Status,
		}).Info("no pending pix payment matched webhook, ignoring")
		return nil
	}

	transactionID := payment.TransactionID
	if transactionID == "" {
		transactionID = p.TransactionID
	}

	if p.Status == model.PixCompleted {
		txn, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if paymentSettled(txn.Status) {
			logrus.WithFields(logrus.Fields{
				"transaction_id": transactionID,
				"payment_id":     payment.PaymentID,
				"status":         txn.Status,
			}).Info("transaction payment already confirmed, ignoring pix webhook")
			return nil
		}
	}

	now := t.now()
	payment.Status = p.Status
	payment.UpdatedAt = now
	payment.AppendWebhook(map[string]interface{}{
		"status":        string(p.Status),
		"amount":        p.Amount.String(),
		"transactionId": p.TransactionID,
		"payerId":       p.PayerID,
		"payerName":     p.PayerName,
		"receivedAt":    now.Format(time.RFC3339),
	})
	if err := tx.UpdatePixPayment(ctx, payment); err != nil {
		return err
	}

	if p.Status != model.PixCompleted {
		return nil
	}

	_, notifications, err := t.applyTransitionTx(ctx, tx, transactionID, model.StatusPaymentConfirmed, model.SystemPrincipal)
	if err != nil {
		return err
	}
	out.touched(transactionID, notifications...)
	return nil
}

// paymentSettled reports whether a trade has already moved past payment.
func paymentSettled(status model.TransactionStatus) bool {
	switch status {
	case model.StatusPaymentConfirmed, model.StatusReleasingCrypto, model.StatusCompleted:
		return true
	}
	return false
}

func (i InternalWebhook) apply(ctx context.Context, t *TradeDesk, tx database.Store, out *effectResult) error {
	actorID := i.ActorID
	if actorID == "" {
		actorID = model.SystemPrincipal
	}

	_, notifications, err := t.applyTransitionTx(ctx, tx, i.TransactionID, i.TargetStatus, actorID)
	if err != nil {
		return err
	}
	out.touched(i.TransactionID, notifications...)
	return nil
}
