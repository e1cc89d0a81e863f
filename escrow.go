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
	"fmt"
	"time"

	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/apierror"
	"github.com/blnkfinance/tradedesk/model"
)

// checkEscrowFor rejects a move whose escrow effect cannot be applied. It runs
// before any write of the move.
func checkEscrowFor(txn *model.Transaction, escrow *model.Escrow, target model.TransactionStatus) error {
	if target != model.StatusCompleted {
		return nil
	}
	if escrow == nil {
		return apierror.Internal("escrow missing for transaction being completed", fmt.Sprintf("transaction %s has no escrow", txn.TransactionID))
	}
	if escrow.Status != model.EscrowLocked {
		return apierror.Internal("escrow is not locked", fmt.Sprintf("escrow %s is %s", escrow.EscrowID, escrow.Status))
	}
	return nil
}

// coupleEscrow applies the escrow side of a transaction move:
//
//	AWAITING_PAYMENT  lock the crypto amount if no escrow exists yet
//	COMPLETED         release
//	CANCELLED         refund when still locked
//	DISPUTED          nothing, the escrow stays locked for arbitration
func coupleEscrow(ctx context.Context, tx database.Store, txn *model.Transaction, escrow *model.Escrow, target model.TransactionStatus, now time.Time) error {
	switch target {
	case model.StatusAwaitingPayment:
		if escrow != nil {
			return nil
		}
		return tx.CreateEscrow(ctx, &model.Escrow{
			EscrowID:      model.GenerateUUIDWithSuffix("esc"),
			TransactionID: txn.TransactionID,
			CryptoAmount:  txn.CryptoAmount,
			Status:        model.EscrowLocked,
			CreatedAt:     now,
		})
	case model.StatusCompleted:
		return tx.UpdateEscrowStatus(ctx, escrow.EscrowID, model.EscrowLocked, model.EscrowReleased, now)
	case model.StatusCancelled:
		if escrow == nil || escrow.Status != model.EscrowLocked {
			return nil
		}
		return tx.UpdateEscrowStatus(ctx, escrow.EscrowID, model.EscrowLocked, model.EscrowRefunded, now)
	default:
		return nil
	}
}
