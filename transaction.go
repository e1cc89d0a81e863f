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

package tradedesk

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

// NewTransaction describes a trade opened from a listing.
type NewTransaction struct {
	ListingID      string
	BuyerID        string
	SellerID       string
	CryptoCurrency string
	CryptoAmount   decimal.Decimal
	UnitPrice      decimal.Decimal
	FiatCurrency   string
	MetaData       map[string]interface{}
}

// CreateTransaction opens a PENDING trade. The total price is the crypto
// amount times the unit price, rounded to cents.
func (t *TradeDesk) CreateTransaction(ctx context.Context, in NewTransaction) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "CreateTransaction")
	defer span.End()

	if in.BuyerID == "" || in.SellerID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "buyer and seller are required", nil)
	}
	if in.BuyerID == in.SellerID {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "buyer and seller must be different users", nil)
	}
	if !in.CryptoAmount.IsPositive() || !in.UnitPrice.IsPositive() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "crypto amount and unit price must be greater than zero", nil)
	}

	fiat := in.FiatCurrency
	if fiat == "" {
		fiat = "BRL"
	}

	now := t.now()
	txn := &model.Transaction{
		TransactionID:  model.GenerateUUIDWithSuffix("txn"),
		ListingID:      in.ListingID,
		BuyerID:        in.BuyerID,
		SellerID:       in.SellerID,
		CryptoCurrency: in.CryptoCurrency,
		CryptoAmount:   in.CryptoAmount,
		UnitPrice:      in.UnitPrice,
		TotalPrice:     in.CryptoAmount.Mul(in.UnitPrice).Round(2),
		FiatCurrency:   fiat,
		Status:         model.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		MetaData:       in.MetaData,
	}

	if err := t.datasource.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransactionView returns the read model of a transaction with its escrow.
// Views are cached when a cache is configured.
func (t *TradeDesk) GetTransactionView(ctx context.Context, transactionID string) (*model.TransactionView, error) {
	ctx, span := tracer.Start(ctx, "GetTransactionView")
	defer span.End()

	key := readModelKey(transactionID)
	if t.cache != nil {
		var cached model.TransactionView
		found, err := t.cache.Get(ctx, key, &cached)
		if err != nil {
			logrus.WithError(err).WithField("transaction_id", transactionID).Warn("read model cache lookup failed")
		}
		if found {
			return &cached, nil
		}
	}

	txn, err := t.datasource.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	escrow, err := t.datasource.GetEscrowByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	view := model.NewTransactionView(*txn, escrow)
	if t.cache != nil {
		ttl := time.Duration(t.config.Cache.ReadModelTTLSec) * time.Second
		if err := t.cache.Set(ctx, key, view, ttl); err != nil {
			logrus.WithError(err).WithField("transaction_id", transactionID).Warn("failed to cache read model")
		}
	}
	return view, nil
}

// RequestPixPayment registers the PIX charge the buyer is about to pay. A
// PENDING trade first moves to AWAITING_PAYMENT, which locks the escrow; both
// writes share one unit of work. A trade that already has a PENDING charge
// gets that charge back instead of a second one.
func (t *TradeDesk) RequestPixPayment(ctx context.Context, transactionID, pixKey, actorID string) (*model.PixPayment, error) {
	ctx, span := tracer.Start(ctx, "RequestPixPayment")
	defer span.End()

	if pixKey == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "pix key is required", nil)
	}

	var (
		payment       *model.PixPayment
		notifications []model.Notification
	)
	err := t.datasource.WithTx(ctx, func(ctx context.Context, tx database.Store) error {
		txn, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if actorID != txn.BuyerID {
			return apierror.Unauthorized("only the buyer can request a pix payment")
		}

		switch txn.Status {
		case model.StatusPending:
			txn, notifications, err = t.applyTransitionTx(ctx, tx, transactionID, model.StatusAwaitingPayment, actorID)
			if err != nil {
				return err
			}
		case model.StatusAwaitingPayment:
			existing, err := tx.GetPendingPixPaymentByTransaction(ctx, transactionID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.PixKey != pixKey {
					logrus.WithFields(logrus.Fields{
						"transaction_id": transactionID,
						"payment_id":     existing.PaymentID,
					}).Info("pix payment already pending under another key, returning it")
				}
				payment = existing
				return nil
			}
		default:
			return apierror.InvalidStateTransition(string(txn.Status), string(model.StatusAwaitingPayment))
		}

		now := t.now()
		payment = &model.PixPayment{
			PaymentID:     model.GenerateUUIDWithSuffix("pix"),
			TransactionID: txn.TransactionID,
			PixKey:        pixKey,
			Amount:        txn.TotalPrice,
			Status:        model.PixPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.CreatePixPayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	t.afterCommit(ctx, []string{transactionID}, notifications)
	return payment, nil
}
