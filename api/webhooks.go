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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blnkfinance/tradedesk"
	"github.com/blnkfinance/tradedesk/internal/apierror"
)

const (
	ProviderHeader  = "provider"
	SignatureHeader = "signature"
	TimestampHeader = "timestamp"
)

// ReceiveWebhook is the ingress for provider callbacks. The raw body is
// passed through untouched because the signature covers its exact bytes.
//
// Responses:
// - 200 OK: {"received": true}, also for redeliveries.
// - 400 Bad Request: the body does not match the provider's schema.
// - 401 Unauthorized: unknown provider or bad signature.
// - 409 Conflict: the effect is not allowed in the transaction's status.
func (a Api) ReceiveWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, apierror.InvalidPayload("failed to read webhook body", err.Error()))
		return
	}

	err = a.desk.HandleInbound(c.Request.Context(), tradedesk.InboundWebhook{
		Provider:  c.GetHeader(ProviderHeader),
		Body:      body,
		Signature: c.GetHeader(SignatureHeader),
		Timestamp: c.GetHeader(TimestampHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
