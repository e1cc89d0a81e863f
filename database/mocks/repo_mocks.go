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

package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// WithTx records the call and runs fn against the mock itself. A non-nil
// error configured for WithTx is returned after fn succeeds, which simulates
// a failed commit.
func (m *MockDataSource) WithTx(ctx context.Context, fn func(ctx context.Context, tx database.Store) error) error {
	args := m.Called(ctx)
	if err := fn(ctx, m); err != nil {
		return err
	}
	return args.Error(0)
}

// Transaction methods

func (m *MockDataSource) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockDataSource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	txn, _ := args.Get(0).(*model.Transaction)
	return txn, args.Error(1)
}

func (m *MockDataSource) UpdateTransactionStatus(ctx context.Context, id string, from, to model.TransactionStatus, completedAt *time.Time, updatedAt time.Time) error {
	args := m.Called(ctx, id, from, to, completedAt, updatedAt)
	return args.Error(0)
}

// Escrow methods

func (m *MockDataSource) CreateEscrow(ctx context.Context, e *model.Escrow) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockDataSource) GetEscrowByTransaction(ctx context.Context, transactionID string) (*model.Escrow, error) {
	args := m.Called(ctx, transactionID)
	e, _ := args.Get(0).(*model.Escrow)
	return e, args.Error(1)
}

func (m *MockDataSource) UpdateEscrowStatus(ctx context.Context, escrowID string, from, to model.EscrowStatus, at time.Time) error {
	args := m.Called(ctx, escrowID, from, to, at)
	return args.Error(0)
}

// PIX methods

func (m *MockDataSource) CreatePixPayment(ctx context.Context, p *model.PixPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockDataSource) FindPendingPixPayment(ctx context.Context, pixKey string, amount decimal.Decimal) (*model.PixPayment, error) {
	args := m.Called(ctx, pixKey, amount)
	p, _ := args.Get(0).(*model.PixPayment)
	return p, args.Error(1)
}

func (m *MockDataSource) GetPendingPixPaymentByTransaction(ctx context.Context, transactionID string) (*model.PixPayment, error) {
	args := m.Called(ctx, transactionID)
	p, _ := args.Get(0).(*model.PixPayment)
	return p, args.Error(1)
}

func (m *MockDataSource) UpdatePixPayment(ctx context.Context, p *model.PixPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// KYC methods

func (m *MockDataSource) GetKYCDocument(ctx context.Context, id string) (*model.KYCDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*model.KYCDocument)
	return doc, args.Error(1)
}

func (m *MockDataSource) UpdateKYCDocument(ctx context.Context, doc *model.KYCDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDataSource) GetApprovedDocumentTypes(ctx context.Context, userID string) ([]model.KYCDocumentType, error) {
	args := m.Called(ctx, userID)
	types, _ := args.Get(0).([]model.KYCDocumentType)
	return types, args.Error(1)
}

func (m *MockDataSource) GetUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *MockDataSource) UpdateUserKYCLevel(ctx context.Context, userID string, level model.KYCLevel) error {
	args := m.Called(ctx, userID, level)
	return args.Error(0)
}

// Audit and notification methods

func (m *MockDataSource) RecordWebhookEvent(ctx context.Context, event *model.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockDataSource) RecordNotification(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
