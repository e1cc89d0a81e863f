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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

// memStore is an in-memory IDataSource. WithTx runs units of work one at a
// time and restores the previous state when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	transactions  map[string]model.Transaction
	escrows       map[string]model.Escrow
	payments      []model.PixPayment
	documents     map[string]model.KYCDocument
	users         map[string]model.User
	events        []model.WebhookEvent
	notifications []model.Notification

	// failures makes the named method return the given error.
	failures map[string]error
}

type memSnapshot struct {
	transactions map[string]model.Transaction
	escrows      map[string]model.Escrow
	payments     []model.PixPayment
	documents    map[string]model.KYCDocument
	users        map[string]model.User
	events       []model.WebhookEvent
}

var _ database.IDataSource = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		transactions: map[string]model.Transaction{},
		escrows:      map[string]model.Escrow{},
		documents:    map[string]model.KYCDocument{},
		users:        map[string]model.User{},
		failures:     map[string]error{},
	}
}

func cloneMeta(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		transactions: map[string]model.Transaction{},
		escrows:      map[string]model.Escrow{},
		documents:    map[string]model.KYCDocument{},
		users:        map[string]model.User{},
		events:       append([]model.WebhookEvent(nil), s.events...),
	}
	for k, v := range s.transactions {
		snap.transactions[k] = v
	}
	for k, v := range s.escrows {
		snap.escrows[k] = v
	}
	for _, p := range s.payments {
		p.MetaData = cloneMeta(p.MetaData)
		snap.payments = append(snap.payments, p)
	}
	for k, v := range s.documents {
		snap.documents[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = snap.transactions
	s.escrows = snap.escrows
	s.payments = snap.payments
	s.documents = snap.documents
	s.users = snap.users
	s.events = snap.events
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx database.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	err := fn(ctx, s)
	if err == nil {
		s.mu.Lock()
		err = s.failures["Commit"]
		s.mu.Unlock()
	}
	if err != nil {
		s.restore(snap)
	}
	return err
}

func (s *memStore) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["CreateTransaction"]; err != nil {
		return err
	}
	s.transactions[txn.TransactionID] = *txn
	return nil
}

func (s *memStore) GetTransaction(_ context.Context, id string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return nil, apierror.NotFound(fmt.Sprintf("Transaction with ID '%s' not found", id))
	}
	txn.MetaData = cloneMeta(txn.MetaData)
	return &txn, nil
}

func (s *memStore) UpdateTransactionStatus(_ context.Context, id string, from, to model.TransactionStatus, completedAt *time.Time, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["UpdateTransactionStatus"]; err != nil {
		return err
	}
	txn, ok := s.transactions[id]
	if !ok || txn.Status != from {
		return apierror.InvalidStateTransition(string(from), string(to))
	}
	txn.Status = to
	txn.CompletedAt = completedAt
	txn.UpdatedAt = updatedAt
	s.transactions[id] = txn
	return nil
}

func (s *memStore) CreateEscrow(_ context.Context, e *model.Escrow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["CreateEscrow"]; err != nil {
		return err
	}
	if _, exists := s.escrows[e.TransactionID]; exists {
		return apierror.Internal("Failed to create escrow", "duplicate escrow")
	}
	s.escrows[e.TransactionID] = *e
	return nil
}

func (s *memStore) GetEscrowByTransaction(_ context.Context, transactionID string) (*model.Escrow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.escrows[transactionID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *memStore) UpdateEscrowStatus(_ context.Context, escrowID string, from, to model.EscrowStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["UpdateEscrowStatus"]; err != nil {
		return err
	}
	for txnID, e := range s.escrows {
		if e.EscrowID != escrowID {
			continue
		}
		if e.Status != from {
			return apierror.NewAPIError(apierror.ErrConflict, "escrow is no longer "+string(from), nil)
		}
		e.Status = to
		stamp := at
		if to == model.EscrowReleased {
			e.ReleasedAt = &stamp
		} else {
			e.RefundedAt = &stamp
		}
		s.escrows[txnID] = e
		return nil
	}
	return apierror.NotFound("escrow " + escrowID + " not found")
}

func (s *memStore) CreatePixPayment(_ context.Context, p *model.PixPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["CreatePixPayment"]; err != nil {
		return err
	}
	stored := *p
	stored.MetaData = cloneMeta(p.MetaData)
	s.payments = append(s.payments, stored)
	return nil
}

func (s *memStore) FindPendingPixPayment(_ context.Context, pixKey string, amount decimal.Decimal) (*model.PixPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PixKey == pixKey && p.Amount.Equal(amount) && p.Status == model.PixPending {
			p.MetaData = cloneMeta(p.MetaData)
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetPendingPixPaymentByTransaction(_ context.Context, transactionID string) (*model.PixPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.TransactionID == transactionID && p.Status == model.PixPending {
			p.MetaData = cloneMeta(p.MetaData)
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdatePixPayment(_ context.Context, p *model.PixPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["UpdatePixPayment"]; err != nil {
		return err
	}
	for i := range s.payments {
		if s.payments[i].PaymentID == p.PaymentID {
			stored := *p
			stored.MetaData = cloneMeta(p.MetaData)
			s.payments[i] = stored
			return nil
		}
	}
	return apierror.NotFound("pix payment " + p.PaymentID + " not found")
}

func (s *memStore) GetKYCDocument(_ context.Context, id string) (*model.KYCDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, apierror.NotFound(fmt.Sprintf("KYC document with ID '%s' not found", id))
	}
	return &doc, nil
}

func (s *memStore) UpdateKYCDocument(_ context.Context, doc *model.KYCDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["UpdateKYCDocument"]; err != nil {
		return err
	}
	if _, ok := s.documents[doc.DocumentID]; !ok {
		return apierror.NotFound("document not found")
	}
	s.documents[doc.DocumentID] = *doc
	return nil
}

func (s *memStore) GetApprovedDocumentTypes(_ context.Context, userID string) ([]model.KYCDocumentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[model.KYCDocumentType]bool{}
	var types []model.KYCDocumentType
	for _, doc := range s.documents {
		if doc.UserID == userID && doc.Status == model.KYCDocumentApproved && !seen[doc.DocumentType] {
			seen[doc.DocumentType] = true
			types = append(types, doc.DocumentType)
		}
	}
	return types, nil
}

func (s *memStore) GetUser(_ context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, apierror.NotFound(fmt.Sprintf("User with ID '%s' not found", userID))
	}
	return &user, nil
}

func (s *memStore) UpdateUserKYCLevel(_ context.Context, userID string, level model.KYCLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return apierror.NotFound("user not found")
	}
	user.KYCLevel = level
	s.users[userID] = user
	return nil
}

func (s *memStore) RecordWebhookEvent(_ context.Context, event *model.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["RecordWebhookEvent"]; err != nil {
		return err
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *memStore) RecordNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}

// Test helpers.

func (s *memStore) transaction(t *testing.T, id string) model.Transaction {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	require.True(t, ok, "transaction %s not stored", id)
	return txn
}

func (s *memStore) escrow(id string) *model.Escrow {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.escrows[id]
	if !ok {
		return nil
	}
	return &e
}

func (s *memStore) payment(t *testing.T, id string) model.PixPayment {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PaymentID == id {
			return p
		}
	}
	t.Fatalf("payment %s not stored", id)
	return model.PixPayment{}
}

func (s *memStore) webhookEvents() []model.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.WebhookEvent(nil), s.events...)
}

func (s *memStore) processedEvents() []model.WebhookEvent {
	var out []model.WebhookEvent
	for _, e := range s.webhookEvents() {
		if e.Processed {
			out = append(out, e)
		}
	}
	return out
}

// seedTransaction stores a trade in the given status along with the escrow
// that status implies.
func (s *memStore) seedTransaction(id string, status model.TransactionStatus) model.Transaction {
	now := time.Now().Add(-time.Hour)
	txn := model.Transaction{
		TransactionID:  id,
		ListingID:      "lst_1",
		BuyerID:        "buyer_1",
		SellerID:       "seller_1",
		CryptoCurrency: "USDT",
		CryptoAmount:   decimal.RequireFromString("100"),
		UnitPrice:      decimal.RequireFromString("5.00"),
		TotalPrice:     decimal.RequireFromString("500.00"),
		FiatCurrency:   "BRL",
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	escrow := model.Escrow{
		EscrowID:      "esc_" + id,
		TransactionID: id,
		CryptoAmount:  txn.CryptoAmount,
		Status:        model.EscrowLocked,
		CreatedAt:     now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch status {
	case model.StatusPending:
	case model.StatusCompleted:
		txn.CompletedAt = &now
		escrow.Status = model.EscrowReleased
		escrow.ReleasedAt = &now
		s.escrows[id] = escrow
	case model.StatusCancelled:
		escrow.Status = model.EscrowRefunded
		escrow.RefundedAt = &now
		s.escrows[id] = escrow
	default:
		s.escrows[id] = escrow
	}
	s.transactions[id] = txn
	return txn
}

func (s *memStore) seedPixPayment(id, transactionID, pixKey, amount string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().Add(-time.Minute * time.Duration(60-len(s.payments)))
	s.payments = append(s.payments, model.PixPayment{
		PaymentID:     id,
		TransactionID: transactionID,
		PixKey:        pixKey,
		Amount:        decimal.RequireFromString(amount),
		Status:        model.PixPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (s *memStore) seedUser(id, nationalID string, level model.KYCLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = model.User{UserID: id, NationalID: nationalID, KYCLevel: level, UpdatedAt: time.Now()}
}

func (s *memStore) seedDocument(id, userID string, docType model.KYCDocumentType, status model.KYCDocumentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.documents[id] = model.KYCDocument{DocumentID: id, UserID: userID, DocumentType: docType, Status: status, CreatedAt: now, UpdatedAt: now}
}

// recordingNotifier keeps every notification it is handed.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) notifications() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.sent...)
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Providers: config.ProvidersConfig{
			Pix:      config.ProviderConfig{Secret: "pix-secret"},
			KYC:      config.ProviderConfig{Secret: "kyc-secret"},
			Internal: config.ProviderConfig{Secret: "internal-secret"},
			Other:    map[string]config.ProviderConfig{"bank": {Secret: "bank-secret"}},
		},
		Cache: config.CacheConfig{ReadModelTTLSec: 60},
		Queue: config.QueueConfig{NotificationQueue: "notifications", MaxRetryAttempts: 3},
	}
}

func newTestDesk(t *testing.T, store *memStore, opts ...Option) (*TradeDesk, *recordingNotifier) {
	t.Helper()
	return newTestDeskWithConfig(t, store, testConfig(), opts...)
}

func newTestDeskWithConfig(t *testing.T, store *memStore, cnf *config.Configuration, opts ...Option) (*TradeDesk, *recordingNotifier) {
	t.Helper()
	config.MockConfig(cnf)
	notifier := &recordingNotifier{}
	desk, err := NewTradeDesk(store, append([]Option{WithNotifier(notifier)}, opts...)...)
	require.NoError(t, err)
	return desk, notifier
}
