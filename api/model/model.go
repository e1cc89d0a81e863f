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
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/blnkfinance/tradedesk/model"
)

func positive(value interface{}) error {
	amount, _ := value.(decimal.Decimal)
	if !amount.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func knownStatus(value interface{}) error {
	status, _ := value.(model.TransactionStatus)
	if !status.Valid() {
		return errors.New("unknown transaction status")
	}
	return nil
}

func (t *CreateTransaction) ValidateCreateTransaction() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.ListingID, validation.Required),
		validation.Field(&t.BuyerID, validation.Required),
		validation.Field(&t.SellerID, validation.Required, validation.NotIn(t.BuyerID).Error("must differ from buyer_id")),
		validation.Field(&t.CryptoCurrency, validation.Required, validation.Length(2, 10)),
		validation.Field(&t.CryptoAmount, validation.By(positive)),
		validation.Field(&t.UnitPrice, validation.By(positive)),
		validation.Field(&t.FiatCurrency, validation.Length(3, 3)),
	)
}

func (r *TransitionRequest) ValidateTransitionRequest() error {
	r.TargetStatus = model.TransactionStatus(strings.ToUpper(string(r.TargetStatus)))
	return validation.ValidateStruct(r,
		validation.Field(&r.TargetStatus, validation.Required, validation.By(knownStatus)),
		validation.Field(&r.ActorID, validation.Required),
	)
}

func (r *ActorRequest) ValidateActorRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ActorID, validation.Required),
	)
}

func (r *PixPaymentRequest) ValidatePixPaymentRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PixKey, validation.Required, validation.Length(1, 77)),
		validation.Field(&r.ActorID, validation.Required),
	)
}

func (r *ResolveDisputeRequest) ValidateResolveDisputeRequest() error {
	r.Outcome = model.TransactionStatus(strings.ToUpper(string(r.Outcome)))
	return validation.ValidateStruct(r,
		validation.Field(&r.Outcome, validation.Required, validation.In(model.StatusCompleted, model.StatusCancelled)),
		validation.Field(&r.ArbiterID, validation.Required),
	)
}
