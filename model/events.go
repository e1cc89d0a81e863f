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
	"encoding/json"
	"time"
)

// Webhook provider tags.
const (
	ProviderPix      = "pix"
	ProviderKYC      = "kyc"
	ProviderInternal = "internal"
	ProviderUnknown  = "unknown"
)

// WebhookEvent is an append-only audit row for an inbound provider callback.
// Only Processed may change after insertion.
type WebhookEvent struct {
	EventID   string          `json:"event_id"`
	Provider  string          `json:"provider"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Signature *string         `json:"signature,omitempty"`
	Processed bool            `json:"processed"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotificationType classifies user-facing notifications.
type NotificationType string

const (
	NotificationTransaction NotificationType = "TRANSACTION"
	NotificationPayment     NotificationType = "PAYMENT"
	NotificationKYC         NotificationType = "KYC"
	NotificationDispute     NotificationType = "DISPUTE"
)

// Notification is a message shown to a user as a consequence of a state change.
type Notification struct {
	NotificationID string                 `json:"notification_id"`
	UserID         string                 `json:"user_id"`
	Type           NotificationType       `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	MetaData       map[string]interface{} `json:"meta_data,omitempty"`
	Read           bool                   `json:"read"`
	CreatedAt      time.Time              `json:"created_at"`
}
