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
	"encoding/json"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

// RecordWebhookEvent appends an audit row for an inbound callback.
func (d Datasource) RecordWebhookEvent(ctx context.Context, event *model.WebhookEvent) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Recording webhook event")
	defer span.End()

	payload := event.Payload
	if !json.Valid(payload) {
		// Unparseable bodies are kept verbatim as a JSON string.
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return apierror.Internal("Failed to encode payload", err)
		}
		payload = quoted
	}

	_, err := d.q().ExecContext(ctx,
		`INSERT INTO tradedesk.webhook_events(event_id,provider,event,payload,signature,processed,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		event.EventID, event.Provider, event.Event, []byte(payload), event.Signature, event.Processed, event.CreatedAt,
	)
	if err != nil {
		return apierror.Internal("Failed to record webhook event", err)
	}
	return nil
}

func (d Datasource) RecordNotification(ctx context.Context, n *model.Notification) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Recording notification")
	defer span.End()

	metaDataJSON, err := json.Marshal(n.MetaData)
	if err != nil {
		return apierror.Internal("Failed to marshal metadata", err)
	}

	_, err = d.q().ExecContext(ctx,
		`INSERT INTO tradedesk.notifications(notification_id,user_id,type,title,message,meta_data,read,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		n.NotificationID, n.UserID, n.Type, n.Title, n.Message, metaDataJSON, n.Read, n.CreatedAt,
	)
	if err != nil {
		return apierror.Internal("Failed to record notification", err)
	}
	return nil
}
