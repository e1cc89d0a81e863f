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

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

func (d Datasource) CreatePixPayment(ctx context.Context, p *model.PixPayment) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Saving pix payment to db")
	defer span.End()

	metaDataJSON, err := json.Marshal(p.MetaData)
	if err != nil {
		return apierror.Internal("Failed to marshal metadata", err)
	}

	_, err = d.q().ExecContext(ctx,
		`INSERT INTO tradedesk.pix_payments(payment_id,transaction_id,pix_key,amount,status,meta_data,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.PaymentID, nullString(p.TransactionID), p.PixKey, p.Amount, p.Status, metaDataJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return apierror.Internal("Failed to create pix payment", err)
	}
	return nil
}

// FindPendingPixPayment returns the oldest PENDING payment for the key and
// amount, or nil when none matches.
func (d Datasource) FindPendingPixPayment(ctx context.Context, pixKey string, amount decimal.Decimal) (*model.PixPayment, error) {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Matching pix payment")
	defer span.End()

	row := d.q().QueryRowContext(ctx, `
		SELECT payment_id, transaction_id, pix_key, amount, status, meta_data, created_at, updated_at
		FROM tradedesk.pix_payments
		WHERE pix_key = $1 AND amount = $2 AND status = $3
		ORDER BY created_at ASC
		LIMIT 1`+d.lockClause(), pixKey, amount, model.PixPending)

	return scanPixPayment(row)
}

// GetPendingPixPaymentByTransaction returns the oldest PENDING payment linked
// to the transaction, or nil when there is none.
func (d Datasource) GetPendingPixPaymentByTransaction(ctx context.Context, transactionID string) (*model.PixPayment, error) {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Fetching pending pix payment by transaction")
	defer span.End()

	row := d.q().QueryRowContext(ctx, `
		SELECT payment_id, transaction_id, pix_key, amount, status, meta_data, created_at, updated_at
		FROM tradedesk.pix_payments
		WHERE transaction_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT 1`+d.lockClause(), transactionID, model.PixPending)

	return scanPixPayment(row)
}

func scanPixPayment(row *sql.Row) (*model.PixPayment, error) {
	p := &model.PixPayment{}
	var transactionID sql.NullString
	var metaDataJSON []byte
	err := row.Scan(&p.PaymentID, &transactionID, &p.PixKey, &p.Amount, &p.Status, &metaDataJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apierror.Internal("Failed to retrieve pix payment", err)
	}
	p.TransactionID = transactionID.String

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &p.MetaData); err != nil {
			return nil, apierror.Internal("Failed to unmarshal metadata", err)
		}
	}
	return p, nil
}

func (d Datasource) UpdatePixPayment(ctx context.Context, p *model.PixPayment) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Updating pix payment")
	defer span.End()

	metaDataJSON, err := json.Marshal(p.MetaData)
	if err != nil {
		return apierror.Internal("Failed to marshal metadata", err)
	}

	result, err := d.q().ExecContext(ctx, `
		UPDATE tradedesk.pix_payments
		SET status = $2, meta_data = $3, updated_at = $4
		WHERE payment_id = $1
	`, p.PaymentID, p.Status, metaDataJSON, p.UpdatedAt)
	if err != nil {
		return apierror.Internal("Failed to update pix payment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.Internal("Failed to read affected rows", err)
	}
	if rows == 0 {
		return apierror.NotFound("pix payment " + p.PaymentID + " not found")
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
