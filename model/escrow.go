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

// EscrowStatus is the custody state of the crypto locked for a trade.
type EscrowStatus string

const (
	EscrowLocked   EscrowStatus = "LOCKED"
	EscrowReleased EscrowStatus = "RELEASED"
	EscrowRefunded EscrowStatus = "REFUNDED"
)

// IsTerminal reports whether the escrow can no longer change.
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowReleased || s == EscrowRefunded
}

// Escrow holds the seller's crypto while a trade is in flight. There is at most
// one escrow per transaction.
type Escrow struct {
	EscrowID      string          `json:"escrow_id"`
	TransactionID string          `json:"transaction_id"`
	CryptoAmount  decimal.Decimal `json:"crypto_amount"`
	Status        EscrowStatus    `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	ReleasedAt    *time.Time      `json:"released_at,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
}
