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

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle phase of a P2P trade.
type TransactionStatus string

const (
	StatusPending          TransactionStatus = "PENDING"
	StatusAwaitingPayment  TransactionStatus = "AWAITING_PAYMENT"
	StatusPaymentConfirmed TransactionStatus = "PAYMENT_CONFIRMED"
	StatusReleasingCrypto  TransactionStatus = "RELEASING_CRYPTO"
	StatusCompleted        TransactionStatus = "COMPLETED"
	StatusCancelled        TransactionStatus = "CANCELLED"
	StatusDisputed         TransactionStatus = "DISPUTED"
)

// AllTransactionStatuses lists every status in lifecycle order.
var AllTransactionStatuses = []TransactionStatus{
	StatusPending,
	StatusAwaitingPayment,
	StatusPaymentConfirmed,
	StatusReleasingCrypto,
	StatusCompleted,
	StatusCancelled,
	StatusDisputed,
}

// Valid reports whether the status value is supported.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusPaymentConfirmed, StatusReleasingCrypto,
		StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave the status.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transaction is a trade between a buyer and a seller originating from a listing.
type Transaction struct {
	TransactionID  string                 `json:"transaction_id"`
	ListingID      string                 `json:"listing_id"`
	BuyerID        string                 `json:"buyer_id"`
	SellerID       string                 `json:"seller_id"`
	CryptoCurrency string                 `json:"crypto_currency"`
	CryptoAmount   decimal.Decimal        `json:"crypto_amount"`
	UnitPrice      decimal.Decimal        `json:"unit_price"`
	TotalPrice     decimal.Decimal        `json:"total_price"`
	FiatCurrency   string                 `json:"fiat_currency"`
	Status         TransactionStatus      `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
}

// IsParty reports whether the user is the buyer or the seller.
func (t *Transaction) IsParty(userID string) bool {
	return userID != "" && (userID == t.BuyerID || userID == t.SellerID)
}

// Counterparty returns the other side of the trade for a party, or an empty string.
func (t *Transaction) Counterparty(userID string) string {
	switch userID {
	case t.BuyerID:
		return t.SellerID
	case t.SellerID:
		return t.BuyerID
	default:
		return ""
	}
}
