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
	"github.com/shopspring/decimal"

	"github.com/blnkfinance/tradedesk"
	"github.com/blnkfinance/tradedesk/model"
)

type CreateTransaction struct {
	ListingID      string                 `json:"listing_id"`
	BuyerID        string                 `json:"buyer_id"`
	SellerID       string                 `json:"seller_id"`
	CryptoCurrency string                 `json:"crypto_currency"`
	CryptoAmount   decimal.Decimal        `json:"crypto_amount"`
	UnitPrice      decimal.Decimal        `json:"unit_price"`
	FiatCurrency   string                 `json:"fiat_currency"`
	MetaData       map[string]interface{} `json:"meta_data"`
}

type TransitionRequest struct {
	TargetStatus model.TransactionStatus `json:"target_status"`
	ActorID      string                  `json:"actor_id"`
}

// ActorRequest is the body of the cancel and dispute shortcuts.
type ActorRequest struct {
	ActorID string `json:"actor_id"`
}

type PixPaymentRequest struct {
	PixKey  string `json:"pix_key"`
	ActorID string `json:"actor_id"`
}

type ResolveDisputeRequest struct {
	Outcome   model.TransactionStatus `json:"outcome"`
	ArbiterID string                  `json:"arbiter_id"`
}

func (t *CreateTransaction) ToNewTransaction() tradedesk.NewTransaction {
	return tradedesk.NewTransaction{
		ListingID:      t.ListingID,
		BuyerID:        t.BuyerID,
		SellerID:       t.SellerID,
		CryptoCurrency: t.CryptoCurrency,
		CryptoAmount:   t.CryptoAmount,
		UnitPrice:      t.UnitPrice,
		FiatCurrency:   t.FiatCurrency,
		MetaData:       t.MetaData,
	}
}
