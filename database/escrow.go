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
	"errors"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

func (d Datasource) CreateEscrow(ctx context.Context, e *model.Escrow) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Saving escrow to db")
	defer span.End()

	_, err := d.q().ExecContext(ctx,
		`INSERT INTO tradedesk.escrows(escrow_id,transaction_id,crypto_amount,status,created_at) VALUES ($1,$2,$3,$4,$5)`,
		e.EscrowID, e.TransactionID, e.CryptoAmount, e.Status, e.CreatedAt,
	)
	if err != nil {
		return apierror.Internal("Failed to create escrow", err)
	}
	return nil
}

func (d Datasource) GetEscrowByTransaction(ctx context.Context, transactionID string) (*model.Escrow, error) {
	row := d.q().QueryRowContext(ctx, `
		SELECT escrow_id, transaction_id, crypto_amount, status, created_at, released_at, refunded_at
		FROM tradedesk.escrows
		WHERE transaction_id = $1`+d.lockClause(), transactionID)

	e := &model.Escrow{}
	err := row.Scan(&e.EscrowID, &e.TransactionID, &e.CryptoAmount, &e.Status, &e.CreatedAt, &e.ReleasedAt, &e.RefundedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apierror.Internal("Failed to retrieve escrow", err)
	}
	return e, nil
}

// UpdateEscrowStatus moves a LOCKED escrow to a terminal status and stamps the
// matching timestamp column.
func (d Datasource) UpdateEscrowStatus(ctx context.Context, escrowID string, from, to model.EscrowStatus, at time.Time) error {
	ctx, span := otel.Tracer("tradedesk.database").Start(ctx, "Updating escrow status")
	defer span.End()

	column := "released_at"
	switch to {
	case model.EscrowReleased:
	case model.EscrowRefunded:
		column = "refunded_at"
	default:
		return apierror.Internal("unsupported escrow status", string(to))
	}

	result, err := d.q().ExecContext(ctx, `
		UPDATE tradedesk.escrows
		SET status = $3, `+column+` = $4
		WHERE escrow_id = $1 AND status = $2
	`, escrowID, from, to, at)
	if err != nil {
		return apierror.Internal("Failed to update escrow status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.Internal("Failed to read affected rows", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, "escrow is no longer "+string(from), nil)
	}
	return nil
}
