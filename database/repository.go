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

package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blnkfinance/tradedesk/model"
)

// IDataSource is the persistent store used by the engine. Reads and writes made
// through the Store handed to WithTx commit or roll back together.
type IDataSource interface {
	Store
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Store groups the record-level operations.
type Store interface {
	transaction  // Trade records
	escrow       // Escrow records
	pixPayment   // PIX payment requests
	kyc          // KYC documents and user levels
	webhookEvent // Inbound webhook audit log
	notification // User notifications
}

// transaction defines methods for handling trades. Inside a unit of work
// GetTransaction locks the row.
type transaction interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, from, to model.TransactionStatus, completedAt *time.Time, updatedAt time.Time) error
}

// escrow defines methods for handling escrows. GetEscrowByTransaction returns nil, nil when no escrow exists.
type escrow interface {
	CreateEscrow(ctx context.Context, e *model.Escrow) error
	GetEscrowByTransaction(ctx context.Context, transactionID string) (*model.Escrow, error)
	UpdateEscrowStatus(ctx context.Context, escrowID string, from, to model.EscrowStatus, at time.Time) error
}

// pixPayment defines methods for handling PIX payments. The lookups return nil, nil when nothing matches.
type pixPayment interface {
	CreatePixPayment(ctx context.Context, p *model.PixPayment) error
	FindPendingPixPayment(ctx context.Context, pixKey string, amount decimal.Decimal) (*model.PixPayment, error)
	GetPendingPixPaymentByTransaction(ctx context.Context, transactionID string) (*model.PixPayment, error)
	UpdatePixPayment(ctx context.Context, p *model.PixPayment) error
}

type kyc interface {
	GetKYCDocument(ctx context.Context, id string) (*model.KYCDocument, error)
	UpdateKYCDocument(ctx context.Context, doc *model.KYCDocument) error
	GetApprovedDocumentTypes(ctx context.Context, userID string) ([]model.KYCDocumentType, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateUserKYCLevel(ctx context.Context, userID string, level model.KYCLevel) error
}

type webhookEvent interface {
	RecordWebhookEvent(ctx context.Context, event *model.WebhookEvent) error
}

type notification interface {
	RecordNotification(ctx context.Context, n *model.Notification) error
}
