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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

func (d Datasource) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Saving transaction to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(txn.MetaData)
	if err != nil {
		return apierror.Internal("Failed to marshal metadata", err)
	}

	_, err = d.q().ExecContext(ctx,
		`INSERT INTO tradedesk.transactions(transaction_id,listing_id,buyer_id,seller_id,crypto_currency,crypto_amount,unit_price,total_price,fiat_currency,status,created_at,updated_at,meta_data) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		txn.TransactionID, txn.ListingID, txn.BuyerID, txn.SellerID, txn.CryptoCurrency, txn.CryptoAmount, txn.UnitPrice, txn.TotalPrice, txn.FiatCurrency, txn.Status, txn.CreatedAt, txn.UpdatedAt, metaDataJSON,
	)
	if err != nil {
		return apierror.Internal("Failed to record transaction", err)
	}
	return nil
}

func (d Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Fetching transaction from db")
	defer span.End()

	row := d.q().QueryRowContext(ctx, `
		SELECT transaction_id, listing_id, buyer_id, seller_id, crypto_currency, crypto_amount, unit_price, total_price, fiat_currency, status, created_at, updated_at, completed_at, meta_data
		FROM tradedesk.transactions
		WHERE transaction_id = $1`+d.lockClause(), id)

	txn := &model.Transaction{}
	var metaDataJSON []byte
	err := row.Scan(&txn.TransactionID, &txn.ListingID, &txn.BuyerID, &txn.SellerID, &txn.CryptoCurrency, &txn.CryptoAmount, &txn.UnitPrice, &txn.TotalPrice, &txn.FiatCurrency, &txn.Status, &txn.CreatedAt, &txn.UpdatedAt, &txn.CompletedAt, &metaDataJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NotFound(fmt.Sprintf("Transaction with ID '%s' not found", id))
		}
		return nil, apierror.Internal("Failed to retrieve transaction", err)
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &txn.MetaData); err != nil {
			return nil, apierror.Internal("Failed to unmarshal metadata", err)
		}
	}

	return txn, nil
}

// UpdateTransactionStatus moves a transaction from one status to another. The
// update only applies while the stored status still equals from; otherwise a
// concurrent writer got there first and the move is rejected.
func (d Datasource) UpdateTransactionStatus(ctx context.Context, id string, from, to model.TransactionStatus, completedAt *time.Time, updatedAt time.Time) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Updating transaction status")
	defer span.End()

	result, err := d.q().ExecContext(ctx, `
		UPDATE tradedesk.transactions
		SET status = $3, completed_at = $4, updated_at = $5
		WHERE transaction_id = $1 AND status = $2
	`, id, from, to, completedAt, updatedAt)
	if err != nil {
		return apierror.Internal("Failed to update transaction status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.Internal("Failed to read affected rows", err)
	}
	if rows == 0 {
		return apierror.InvalidStateTransition(string(from), string(to))
	}
	return nil
}
