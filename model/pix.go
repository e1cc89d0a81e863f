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

// PixPaymentStatus mirrors the status reported by the PIX provider.
type PixPaymentStatus string

const (
	PixPending   PixPaymentStatus = "PENDING"
	PixCompleted PixPaymentStatus = "COMPLETED"
	PixFailed    PixPaymentStatus = "FAILED"
)

// PixPayment is a fiat payment request on the PIX rail, optionally tied to a trade.
type PixPayment struct {
	PaymentID     string                 `json:"payment_id"`
	TransactionID string                 `json:"transaction_id,omitempty"`
	PixKey        string                 `json:"pix_key"`
	Amount        decimal.Decimal        `json:"amount"`
	Status        PixPaymentStatus       `json:"status"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// AppendWebhook records a provider payload in the payment's webhook history.
func (p *PixPayment) AppendWebhook(entry map[string]interface{}) {
	if p.MetaData == nil {
		p.MetaData = make(map[string]interface{})
	}
	history, _ := p.MetaData["webhooks"].([]interface{})
	p.MetaData["webhooks"] = append(history, entry)
}
